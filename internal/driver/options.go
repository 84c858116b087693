package driver

import (
	"quill/internal/diag"
	"quill/internal/project"
)

// Options configures a check run.
type Options struct {
	// Jobs bounds parallel function checks; <= 0 means GOMAXPROCS.
	Jobs int
	// MaxDiagnostics caps the merged bag; 0 means unbounded.
	MaxDiagnostics int

	WarningsAsErrors bool
	NoWarnings       bool
	// Allow lists codes that are dropped from the output.
	Allow []diag.Code

	// EmitLoans keeps the loan event log and region table per function.
	// Cached results carry no events, so it bypasses the cache.
	EmitLoans      bool
	MaxBlockVisits int

	Cache    *ResultCache
	Observer ProgressObserver
}

// OptionsFromConfig maps quill.toml onto driver options. Command-line
// flags are applied on top by the caller.
func OptionsFromConfig(cfg project.Config) (Options, error) {
	allow, err := cfg.Check.AllowedCodes()
	if err != nil {
		return Options{}, err
	}
	return Options{
		Jobs:             cfg.Check.Jobs,
		MaxDiagnostics:   cfg.Check.MaxDiagnostics,
		WarningsAsErrors: cfg.Check.WarningsAsErrors,
		NoWarnings:       cfg.Check.NoWarnings,
		Allow:            allow,
	}, nil
}

func (o *Options) allowed(code diag.Code) bool {
	for _, c := range o.Allow {
		if c == code {
			return true
		}
	}
	return false
}

// keep applies the allow list and --no-warnings.
func (o *Options) keep(d *diag.Diagnostic) bool {
	if o.allowed(d.Code) {
		return false
	}
	if o.NoWarnings && d.Severity < diag.SevError {
		return false
	}
	return true
}

// promote applies --warnings-as-errors.
func (o *Options) promote(d diag.Diagnostic) diag.Diagnostic {
	if o.WarningsAsErrors && d.Severity == diag.SevWarning {
		d.Severity = diag.SevError
	}
	return d
}
