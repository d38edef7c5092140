// Package macro runs macro rules over a concept graph until nothing new
// appears.
//
// Each iteration sweeps the rules one by one. A sweep runs the rule on every
// resolved concept it is bound to and merges the output into the graph
// before the next rule starts, so later rules already see it. The loop stops
// after an iteration that resolves no new concept. Rules are pure: the final
// graph does not depend on the order of the sweeps, only the number of
// iterations does. Hints remember in which iteration each rule last produced
// something and are used to run producers before consumers.
package macro
