package container

// DeclKind is the closed set of import declaration kinds.
type DeclKind int

const (
	ModuleRef DeclKind = iota
	ComponentRef
	SelectorRef
	RegistrarRef
)

func (k DeclKind) String() string {
	switch k {
	case ModuleRef:
		return "module"
	case ComponentRef:
		return "component"
	case SelectorRef:
		return "selector"
	case RegistrarRef:
		return "registrar"
	}
	return "unknown"
}

// Declaration is one import entry: what is imported and by whom.
type Declaration struct {
	Kind     DeclKind
	Target   string
	Declarer string
}
