package gametestx

import "github.com/comalice/gametestx/internal/sandbox"

// Spatial types shared with the sandbox allocator.
type (
	Pos              = sandbox.Pos
	Size             = sandbox.Size
	Region           = sandbox.Region
	Rotation         = sandbox.Rotation
	GridConfig       = sandbox.Config
	StructureCatalog = sandbox.StructureCatalog
	Catalog          = sandbox.Catalog
)

// DefaultGrid is the sandbox grid of a scheduler created without WithGrid.
// Both axes are unbounded, so the grid grows as tests need room and no
// structure is ever too large for it.
var DefaultGrid = GridConfig{}
