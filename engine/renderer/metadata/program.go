package metadata

/** @brief Location of a uniform, written by the render thread when the program links. */
type UniformLocation struct {
	Loc int32
}

func NewUniformLocation() *UniformLocation {
	return &UniformLocation{Loc: -1}
}

/** @brief Binds a vertex attribute name to a location. */
type Semantic struct {
	Location int
	Attrib   string
}

/** @brief Asks the render thread to resolve Name into Dest after linking. */
type UniformLocQuery struct {
	Dest     *UniformLocation
	Name     string
	Required bool
}

/** @brief Initial integer value for a uniform (typically sampler slots). */
type Initializer struct {
	Uniform *UniformLocation
	Type    int
	Value   int
}

type ProgramFlags struct {
	SupportDualSource bool
	UseClipDistance0  bool
	UseClipDistance1  bool
	UseClipDistance2  bool
}

/**
 * @brief A linked program. It does not own its shaders: they are only
 * referenced by the create step and may be deleted once linking is queued.
 */
type Program struct {
	Handle

	/** @brief The native device object name. Render thread only. */
	Native uint32

	Semantics       []Semantic
	Queries         []UniformLocQuery
	Initializers    []Initializer
	UseClipDistance [8]bool

	/** @brief Opaque per-program data owned by the handle, released with it. */
	LocData any

	uniformCache   map[string]int32
	deleteCallback func(any)
	deleteParam    any
}

func NewProgram(semantics []Semantic, queries []UniformLocQuery, initializers []Initializer, locData any, flags ProgramFlags) *Program {
	p := &Program{
		Handle:       newHandle(),
		Semantics:    semantics,
		Queries:      queries,
		Initializers: initializers,
		LocData:      locData,
		uniformCache: make(map[string]int32),
	}
	p.UseClipDistance[0] = flags.UseClipDistance0
	p.UseClipDistance[1] = flags.UseClipDistance1
	p.UseClipDistance[2] = flags.UseClipDistance2
	return p
}

func (p *Program) ResourceType() ResourceType {
	return ResourceTypeProgram
}

// UniformLoc resolves a uniform by name, asking lookup only on the first
// request for that name. Must only be called from the render thread.
func (p *Program) UniformLoc(name string, lookup func(name string) int32) int32 {
	if loc, ok := p.uniformCache[name]; ok {
		return loc
	}
	loc := lookup(name)
	p.uniformCache[name] = loc
	return loc
}

// SetDeleteCallback registers cb to be called with param when the program is destroyed.
func (p *Program) SetDeleteCallback(cb func(any), param any) {
	p.deleteCallback = cb
	p.deleteParam = param
}

// Release runs the delete callback and drops the owned location data.
func (p *Program) Release() {
	if p.deleteCallback != nil {
		p.deleteCallback(p.deleteParam)
		p.deleteCallback = nil
	}
	p.LocData = nil
	p.uniformCache = nil
}
