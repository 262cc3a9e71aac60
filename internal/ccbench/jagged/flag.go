package jagged

// Flag adapts Array to pflag.Value (String/Set/Type), so cmd/ccbench can
// wire -t/-x/-A directly onto a jagged.Array field without a pflag
// dependency leaking into this package's own API.
type Flag struct {
	Value Array
	set   bool
}

func (f *Flag) String() string {
	if !f.set {
		return ""
	}
	return Serialize(f.Value)
}

func (f *Flag) Set(s string) error {
	arr, err := Parse(s)
	if err != nil {
		return err
	}
	f.Value = arr
	f.set = true
	return nil
}

func (f *Flag) Type() string { return "jagged" }
