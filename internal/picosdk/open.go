package picosdk

import "fmt"

// New returns the driver registered under name: "sim" or "ps5000a".
func New(name string) (Driver, error) {
	switch name {
	case "", "sim", "simulated":
		return NewSimulated(), nil
	case "ps5000a":
		return NewPS5000A()
	}
	return nil, fmt.Errorf("unknown scope driver %q", name)
}
