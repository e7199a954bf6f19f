package metadata

import "github.com/gogpu/gputypes"

type InputLayoutEntry struct {
	Location int
	Format   gputypes.VertexFormat
	Stride   int
	Offset   int
}

/** @brief Describes how vertex buffer contents map to attribute locations. */
type InputLayout struct {
	Handle

	Entries []InputLayoutEntry
	/** @brief Bit i is set when attribute location i is used. */
	SemanticsMask int
}

func NewInputLayout(entries []InputLayoutEntry) *InputLayout {
	il := &InputLayout{
		Handle:  newHandle(),
		Entries: append([]InputLayoutEntry(nil), entries...),
	}
	for _, e := range il.Entries {
		il.SemanticsMask |= 1 << e.Location
	}
	return il
}

func (il *InputLayout) ResourceType() ResourceType {
	return ResourceTypeInputLayout
}
