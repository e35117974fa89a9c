package dispatch

import (
	"github.com/lastnameswayne/launchpad/config"
)

type Mode string

const (
	ModeProd    Mode = "prod"
	ModeStaging Mode = "sg"
	ModeDev     Mode = "dev"
)

// forwarded is how many positional arguments reach compose in dev mode.
const forwarded = 2

// ParseMode only recognises the literal tokens "prod" and "sg". Everything
// else, including an empty token, selects dev.
func ParseMode(token string) Mode {
	switch token {
	case string(ModeProd):
		return ModeProd
	case string(ModeStaging):
		return ModeStaging
	default:
		return ModeDev
	}
}

// Invocation is one fully resolved compose call.
type Invocation struct {
	Mode        Mode
	ComposeFile string
	// Args are the compose arguments, without the compose binary.
	Args []string
	// Forwarded are the positional arguments passed through in dev mode.
	Forwarded []string
	// Dropped are positional arguments past the second one.
	Dropped []string
	Env     []string
}

// ComposeFile returns the compose file path for a mode, resolved against the
// working directory.
func ComposeFile(cfg config.Config, mode Mode) string {
	switch mode {
	case ModeProd:
		return cfg.Resolve(cfg.ProdFile)
	case ModeStaging:
		return cfg.Resolve(cfg.StagingFile)
	default:
		return cfg.Resolve(cfg.DevFile)
	}
}

// Plan selects exactly one compose invocation for the launcher arguments.
//
// prod and sg bring their stack up with --build and forward nothing else.
// Any other first argument selects the dev file, and the first two
// positional arguments are passed through verbatim, so "web --build"
// becomes "up web --build".
func Plan(cfg config.Config, args []string) Invocation {
	var token string
	if len(args) > 0 {
		token = args[0]
	}
	mode := ParseMode(token)
	file := ComposeFile(cfg, mode)

	inv := Invocation{
		Mode:        mode,
		ComposeFile: file,
		Env:         cfg.Properties.Environ(),
	}

	switch mode {
	case ModeProd, ModeStaging:
		inv.Args = []string{"-f", file, "up", "--build"}
	default:
		inv.Args = []string{"-f", file, "up"}
		for i, a := range args {
			if i >= forwarded {
				inv.Dropped = append(inv.Dropped, args[i:]...)
				break
			}
			if a == "" {
				continue
			}
			inv.Forwarded = append(inv.Forwarded, a)
		}
		inv.Args = append(inv.Args, inv.Forwarded...)
	}
	return inv
}

// Service is the service selected in dev mode, if any. A forwarded argument
// that looks like a flag is not a service.
func (inv Invocation) Service() string {
	if inv.Mode != ModeDev || len(inv.Forwarded) == 0 {
		return ""
	}
	first := inv.Forwarded[0]
	if len(first) > 0 && first[0] == '-' {
		return ""
	}
	return first
}
