// Package cli holds the option parsing and exit code handling shared by the
// referee and schedule commands.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/codr1/refschedule/internal/config"
	"github.com/codr1/refschedule/internal/schedule"
	"github.com/codr1/refschedule/internal/translations"
)

const (
	ExitOK           = 0
	ExitFailure      = 1
	ExitMasterSheet  = 22
	ExitTranslations = 55
	ExitMissingFile  = 66
	ExitBadOption    = 77
	ExitUsage        = 99
)

var (
	ErrHelp          = errors.New("help requested")
	ErrUnknownOption = errors.New("unknown option")
	ErrMissingOption = errors.New("missing required option")
)

type option struct {
	short    string
	long     string
	usage    string
	required bool
	value    *string
}

// Parser binds each option to a short and a long flag name.
type Parser struct {
	name    string
	options []*option
	flags   *flag.FlagSet
}

func NewParser(name string) *Parser {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetOutput(io.Discard)
	return &Parser{name: name, flags: flags}
}

// String registers a string option reachable as -short and -long.
func (p *Parser) String(short, long, usage string, required bool) *string {
	opt := &option{short: short, long: long, usage: usage, required: required, value: new(string)}
	p.flags.StringVar(opt.value, short, "", usage)
	p.flags.StringVar(opt.value, long, "", usage)
	p.options = append(p.options, opt)
	return opt.value
}

func (p *Parser) Parse(args []string) error {
	if err := p.flags.Parse(p.splitAttached(args)); err != nil {
		switch {
		case errors.Is(err, flag.ErrHelp):
			return ErrHelp
		case strings.HasPrefix(err.Error(), "flag provided but not defined"):
			return fmt.Errorf("%w: %s", ErrUnknownOption, strings.TrimPrefix(err.Error(), "flag provided but not defined: "))
		case strings.HasPrefix(err.Error(), "flag needs an argument"):
			return fmt.Errorf("%w: %s", ErrUnknownOption, strings.TrimPrefix(err.Error(), "flag needs an argument: "))
		default:
			return fmt.Errorf("%w: %v", ErrMissingOption, err)
		}
	}
	if extra := p.flags.Args(); len(extra) > 0 {
		return fmt.Errorf("%w: %s", ErrUnknownOption, strings.Join(extra, " "))
	}

	var missing []string
	for _, opt := range p.options {
		*opt.value = strings.TrimSpace(*opt.value)
		if opt.required && *opt.value == "" {
			missing = append(missing, "--"+opt.long)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingOption, strings.Join(missing, ", "))
	}
	return nil
}

// splitAttached rewrites the getopt form -mVALUE as -m VALUE. Arguments in
// value position and anything after "--" are left alone.
func (p *Parser) splitAttached(args []string) []string {
	out := make([]string, 0, len(args)+1)
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return append(out, args[i:]...)
		}
		if !strings.HasPrefix(arg, "-") || len(arg) < 2 {
			out = append(out, arg)
			continue
		}
		name := strings.TrimLeft(arg, "-")
		if strings.Contains(name, "=") {
			out = append(out, arg)
			continue
		}
		if p.flags.Lookup(name) != nil {
			out = append(out, arg)
			if i+1 < len(args) {
				i++
				out = append(out, args[i])
			}
			continue
		}
		if !strings.HasPrefix(arg, "--") && p.isShort(arg[1:2]) {
			out = append(out, arg[:2], arg[2:])
			continue
		}
		out = append(out, arg)
	}
	return out
}

func (p *Parser) isShort(name string) bool {
	for _, opt := range p.options {
		if opt.short == name {
			return true
		}
	}
	return false
}

func (p *Parser) Usage() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Usage: %s", p.name)
	for _, opt := range p.options {
		fmt.Fprintf(&b, " -%s <%s>", opt.short, opt.long)
	}
	b.WriteString("\n")
	for _, opt := range p.options {
		fmt.Fprintf(&b, "  -%s, --%-14s %s\n", opt.short, opt.long, opt.usage)
	}
	return b.String()
}

// Fail logs a parse failure together with the usage text and returns the
// exit code for it.
func (p *Parser) Fail(ctx context.Context, err error) int {
	code := ExitCode(err)
	if errors.Is(err, ErrHelp) {
		log.Ctx(ctx).Info().Msg(p.Usage())
		return code
	}
	log.Ctx(ctx).Error().Err(err).Msg(p.Usage())
	return code
}

// ExitCode maps an error onto the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrHelp), errors.Is(err, ErrMissingOption):
		return ExitUsage
	case errors.Is(err, ErrUnknownOption):
		return ExitBadOption
	case errors.Is(err, schedule.ErrMasterSheetNotFound):
		return ExitMasterSheet
	case errors.Is(err, translations.ErrNoFields), errors.Is(err, translations.ErrNoAgeGroups):
		return ExitTranslations
	case errors.Is(err, translations.ErrNotFound),
		errors.Is(err, config.ErrMissingEnv),
		errors.Is(err, fs.ErrNotExist):
		return ExitMissingFile
	default:
		return ExitFailure
	}
}
