package cli

// Options is the root command that groups sub-commands.  The struct tags are
// interpreted by github.com/jessevdk/go-flags.
type Options struct {
	Config  string `short:"f" long:"config" description:"orchestrator config YAML path"`
	Version bool   `short:"v" long:"version" description:"print version and exit"`

	Connect  *ConnectCmd  `command:"connect"  description:"Run simulated conversations between a user and every eligible partner"`
	Simulate *SimulateCmd `command:"simulate" description:"Run a single conversation between two persona files"`
	Add      *AddCmd      `command:"add"      description:"Add a user profile from a participant YAML"`
	InitDB   *InitCmd     `command:"init"     description:"Create or upgrade the embedded database schema"`
}

// Init instantiates the sub-command referenced by the first argument so that
// flags.Parse can populate its fields.
func (o *Options) Init(firstArg string) {
	switch firstArg {
	case "connect":
		o.Connect = &ConnectCmd{}
	case "simulate":
		o.Simulate = &SimulateCmd{}
	case "add":
		o.Add = &AddCmd{}
	case "init":
		o.InitDB = &InitCmd{}
	}
}
