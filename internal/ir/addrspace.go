package ir

import "github.com/martty/shady-go/internal/errors"

// addressSpaceInfo gives each AddressSpace a stable name, used both for
// diagnostics and as the "physical" classification table §6 describes.
var addressSpaceInfo = map[AddressSpace]struct {
	Name     string
	Physical bool
}{
	AsGlobalLogical:    {"global", false},
	AsSharedLogical:    {"shared", false},
	AsPrivateLogical:   {"private", false},
	AsFunctionLogical:  {"function", false},
	AsGeneric:          {"generic", false},
	AsGlobalPhysical:   {"global", true},
	AsSharedPhysical:   {"shared", true},
	AsPrivatePhysical:  {"private", true},
	AsSubgroupPhysical: {"subgroup", true},
	AsInput:            {"input", false},
	AsOutput:           {"output", false},
	AsExternal:         {"external", false},
	AsProgramCode:      {"program_code", false},
}

// IsPhysicalAddressSpace mirrors the grammar-generated is_physical_as predicate.
func IsPhysicalAddressSpace(as AddressSpace) bool {
	return addressSpaceInfo[as].Physical
}

func (as AddressSpace) String() string {
	if info, ok := addressSpaceInfo[as]; ok {
		return info.Name
	}
	return "unknown_address_space"
}

// SPIRVStorageClass implements the §6 address-space mapping table used at
// SPIR-V emission. Address spaces that must already have been lowered by
// an earlier pass (generic, physical shared/private/subgroup) report an
// Unimplemented error, matching shady's emit_spv_type.c emit_addr_space.
func SPIRVStorageClass(as AddressSpace) (string, error) {
	switch as {
	case AsGlobalLogical:
		return "StorageBuffer", nil
	case AsSharedLogical:
		return "Workgroup", nil
	case AsPrivateLogical:
		return "Private", nil
	case AsFunctionLogical:
		return "Function", nil
	case AsGlobalPhysical:
		return "PhysicalStorageBuffer", nil
	case AsInput:
		return "Input", nil
	case AsOutput:
		return "Output", nil
	case AsExternal:
		return "StorageBuffer", nil
	case AsGeneric, AsSharedPhysical, AsPrivatePhysical, AsSubgroupPhysical:
		return "", errors.Unimplemented("emit_spirv", "address space "+as.String()+" must be lowered before SPIR-V emission")
	default:
		return "", errors.Unimplemented("emit_spirv", "unknown address space")
	}
}
