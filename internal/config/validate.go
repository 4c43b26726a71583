package config

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "storage.db.dsn").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("koanf"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// identRE matches a plain or schema-qualified table name.
var identRE = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

var knownStorage = map[string]struct{}{
	"postgres": {},
	"sqlite":   {},
	"mssql":    {},
	"mysql":    {},
}

// ValidatePipeline performs static validation of p. It combines the struct
// rules declared on the model with checks across fields. It does not mutate
// p.
func ValidatePipeline(p Pipeline) []Issue {
	issues := structIssues(p)

	issues = append(issues, validateSource(p.Source)...)
	if k := p.Storage.Kind; k != "" {
		if _, ok := knownStorage[k]; !ok {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "storage.kind",
				Message:  fmt.Sprintf("unknown storage kind %q; ensure a matching backend is registered", k),
			})
		}
	}
	if t := p.Storage.DB.Table; t != "" && !identRE.MatchString(t) {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.table",
			Message:  fmt.Sprintf("table %q must be a plain identifier, optionally schema-qualified", t),
		})
	}
	if !p.Storage.DB.AutoCreateTable {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.db.auto_create_table",
			Message:  "auto_create_table is off; the table must already have every log column",
		})
	}

	issues = append(issues, validateRuntime(p.Runtime, p.Storage.DB.PoolSize)...)
	return issues
}

func validateSource(s Source) []Issue {
	switch s.Kind {
	case "":
		return nil
	case "file":
		if strings.TrimSpace(s.File.Path) == "" {
			return []Issue{{
				Severity: SeverityError,
				Path:     "source.file.path",
				Message:  "file source requires a non-empty path",
			}}
		}
	case "http":
		u := strings.TrimSpace(s.HTTP.URL)
		if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
			return []Issue{{
				Severity: SeverityError,
				Path:     "source.http.url",
				Message:  fmt.Sprintf("http source requires an http(s) url (got %q)", u),
			}}
		}
		if s.HTTP.InsecureSkipVerify {
			return []Issue{{
				Severity: SeverityWarning,
				Path:     "source.http.insecure_skip_verify",
				Message:  "TLS certificate verification is disabled",
			}}
		}
	default:
		return []Issue{{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unknown source kind %q (want file|http)", s.Kind),
		}}
	}
	return nil
}

func structIssues(p Pipeline) []Issue {
	err := validate.Struct(p)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []Issue{{Severity: SeverityError, Path: "", Message: err.Error()}}
	}
	issues := make([]Issue, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     fieldPath(fe.Namespace()),
			Message:  ruleMessage(fe),
		})
	}
	return issues
}

// fieldPath drops the root type name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "required_if":
		return fmt.Sprintf("must not be empty when %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s (got %v)", fe.Param(), fe.Value())
	case "oneof":
		return fmt.Sprintf("must be one of [%s] (got %q)", fe.Param(), fe.Value())
	default:
		return fmt.Sprintf("failed %q rule", fe.Tag())
	}
}

func validateRuntime(r RuntimeConfig, poolSize int) []Issue {
	var issues []Issue

	if r.BatchSize == 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.batch_size",
			Message:  "batch_size=0; the default batch size will be used",
		})
	}
	if r.Retry.MaxBackoff > 0 && r.Retry.MaxBackoff < r.Retry.InitialBackoff {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.retry.max_backoff",
			Message: fmt.Sprintf("max_backoff %s is below initial_backoff %s",
				r.Retry.MaxBackoff, r.Retry.InitialBackoff),
		})
	}
	if poolSize > 0 && r.Writers > poolSize {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.writers",
			Message: fmt.Sprintf("writers=%d exceeds storage.db.pool_size=%d; extra writers wait for connections",
				r.Writers, poolSize),
		})
	}
	if r.InFlight > 0 && r.Workers > 0 && r.InFlight < r.Workers {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.in_flight",
			Message:  fmt.Sprintf("in_flight=%d is below workers=%d; parse workers will idle", r.InFlight, r.Workers),
		})
	}
	return issues
}
