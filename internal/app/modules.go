package app

import (
	"github.com/vk/conceptc/internal/registry"
	"github.com/vk/conceptc/modules/common"
)

// coreModules is the list of concept modules compiled into the conceptc
// binary.
var coreModules = []registry.Module{
	&common.Module{},
}
