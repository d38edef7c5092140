package compiler_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/conceptc/internal/compiler"
	"github.com/vk/conceptc/internal/diag"
	"github.com/vk/conceptc/internal/macro"
	"github.com/vk/conceptc/internal/source"
	"github.com/vk/conceptc/internal/testutil"
)

func orderedKeys(r *compiler.Result) []string {
	out := []string{}
	for _, c := range r.Ordered() {
		out = append(out, c.Key())
	}
	return out
}

func TestCompile_NestedDeclarations(t *testing.T) {
	res := testutil.Compile(t, `
Module M {
	Entity E {
		Integer I;
	}
}`)
	require.NoError(t, res.Err)

	keys := testutil.Keys(res.Result)
	for _, k := range []string{"Module M", "Entity M.E", "Integer M.E.I"} {
		assert.Contains(t, keys, k)
	}
	assert.Contains(t, keys, "Guid M.E.ID", "writable entities get an ID property")
	assert.Empty(t, res.Result.Graph.Unresolved())
	testutil.AssertTopological(t, res.Result)
	assert.Contains(t, res.LogOutput, "Compilation finished.")
	assert.Contains(t, res.LogOutput, `msg="Scripts parsed." stage=parse`)
	assert.Contains(t, res.LogOutput, `msg="Macro expansion reached fixpoint." stage=macro`)
}

func TestCompile_MacroChain(t *testing.T) {
	res := testutil.Compile(t, `Module M { Entity E { Hierarchy Parent; } }`)
	require.NoError(t, res.Err)

	keys := testutil.Keys(res.Result)
	assert.Contains(t, keys, "Hierarchy M.E.Parent")
	assert.Contains(t, keys, "Reference M.E.Parent")
	assert.Contains(t, keys, "SqlIndex M.E.Parent")

	ref, ok := res.Result.Lookup("Reference M.E.Parent")
	require.True(t, ok)
	assert.Equal(t, "M.E", ref.Get("Referenced"))
	testutil.AssertTopological(t, res.Result)
}

func TestCompile_UndeclaredReference(t *testing.T) {
	res := testutil.Compile(t, `Module M { Browse B M.Missing; }`)
	require.Error(t, res.Err)

	var unresolved *diag.UnresolvedReferenceError
	require.True(t, errors.As(res.Err, &unresolved))
	assert.Equal(t, "Source", unresolved.Member)
	assert.Equal(t, "DataStructure M.Missing", unresolved.Reference)
	assert.Contains(t, unresolved.Error(), "M.Missing")
}

func TestCompile_AmbiguousSyntax(t *testing.T) {
	res := testutil.Compile(t, `Table T;`, testutil.AmbiguousModule{})
	require.Error(t, res.Err)

	var syntax *diag.SyntaxError
	require.True(t, errors.As(res.Err, &syntax))
	assert.ElementsMatch(t, []string{"LookupTable", "PhysicalTable"}, syntax.Candidates)
	assert.Contains(t, syntax.Error(), "ambiguous syntax")
}

func TestCompile_InfiniteExpansion(t *testing.T) {
	reg := testutil.NewRegistry(t, testutil.GrowModule{})
	res := testutil.CompileWith(t, reg, compiler.Options{MaxIterations: 10}, source.FromString("grow.rhe", "Grow a;"))
	require.Error(t, res.Err)

	var inf *diag.InfiniteExpansionError
	require.True(t, errors.As(res.Err, &inf))
	assert.Equal(t, "grow", inf.Rule)
	assert.Equal(t, 10, inf.Iterations)
	assert.Equal(t, "Grow axxxxxxxxxx", inf.Concept)
}

func TestCompile_Errors(t *testing.T) {
	testCases := []struct {
		name   string
		script string
		kind   diag.Kind
	}{
		{name: "unterminated string", script: `Module "M;`, kind: diag.KindLexical},
		{name: "unknown keyword", script: `Modul M;`, kind: diag.KindSyntax},
		{name: "unclosed block", script: `Module M {`, kind: diag.KindSyntax},
		{name: "conflicting duplicate", script: `Module M { Entity E { Integer X; ShortString X; } }`, kind: diag.KindDuplicateDefinition},
		{name: "failed self-check", script: `Module M { Entity E { ShortString S { MaxLength 0; } } }`, kind: diag.KindSemanticValidation},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res := testutil.Compile(t, tc.script)
			require.Error(t, res.Err)
			assert.Nil(t, res.Result)

			var de diag.Error
			require.True(t, errors.As(res.Err, &de))
			assert.Equal(t, tc.kind, de.Kind())
		})
	}
}

func TestCompile_Cycles(t *testing.T) {
	res := testutil.Compile(t, `Node A B; Node B C; Node C A;`, testutil.NodeModule{})
	require.NoError(t, res.Err)
	assert.Len(t, res.Result.Order, 3)
	testutil.AssertTopological(t, res.Result)
	assert.Contains(t, res.LogOutput, "reference cycle")
}

func TestCompile_Idempotent(t *testing.T) {
	once := testutil.Compile(t, `Module M { Entity E { Integer I; } }`)
	twice := testutil.Compile(t, `
Module M { Entity E { Integer I; } }
Module M { Entity E { Integer I; } }`)
	require.NoError(t, once.Err)
	require.NoError(t, twice.Err)

	if diff := cmp.Diff(orderedKeys(once.Result), orderedKeys(twice.Result)); diff != "" {
		t.Errorf("redeclaration changed the result (-once +twice):\n%s", diff)
	}
}

func TestCompile_Deterministic(t *testing.T) {
	script := `
Module M {
	Entity E { Hierarchy Parent; Integer Count; }
	Browse B M.E;
}`
	reg := testutil.NewRegistry(t)
	first := testutil.CompileWith(t, reg, compiler.Options{}, source.FromString("a.rhe", script))
	require.NoError(t, first.Err)

	// Warm hints reorder rule sweeps but must not change the outcome.
	hints := macro.NewHints()
	for i := 0; i < 2; i++ {
		again := testutil.CompileWith(t, reg, compiler.Options{Hints: hints}, source.FromString("a.rhe", script))
		require.NoError(t, again.Err)
		assert.Equal(t, orderedKeys(first.Result), orderedKeys(again.Result))
	}
}

func TestLazy_BuildsOnce(t *testing.T) {
	reg := testutil.NewRegistry(t)
	var builds atomic.Int64
	lazy := compiler.NewLazy(func(ctx context.Context) (*compiler.Result, error) {
		builds.Add(1)
		return compiler.Compile(ctx, reg, source.FromString("m.rhe", "Module M;"), compiler.Options{})
	})

	const callers = 32
	results := make([]*compiler.Result, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, err := lazy.Get(context.Background())
			assert.NoError(t, err)
			results[i] = r
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), builds.Load())
	for _, r := range results {
		assert.Same(t, results[0], r)
	}
}

func TestLazy_SharesError(t *testing.T) {
	calls := 0
	lazy := compiler.NewLazy(func(context.Context) (*compiler.Result, error) {
		calls++
		return nil, errors.New("boom")
	})
	_, err1 := lazy.Get(context.Background())
	_, err2 := lazy.Get(context.Background())
	assert.EqualError(t, err1, "boom")
	assert.Same(t, err1, err2)
	assert.Equal(t, 1, calls)
}
