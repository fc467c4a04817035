package validation

import (
	"fmt"
	"time"
)

// Result acumula o desfecho de uma validação síncrona. A composição
// nunca é fail-fast: uma única chamada expõe todas as violações.
type Result struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// Validator é uma função pura (valor) -> Result, sem ida ao store.
type Validator func(value any) Result

func ok() Result {
	return Result{Valid: true}
}

func fail(message string) Result {
	return Result{Valid: false, Errors: []string{message}}
}

// All compõe validators acumulando TODAS as falhas numa passada.
func All(validators ...Validator) Validator {
	return func(value any) Result {
		result := ok()
		for _, validator := range validators {
			partial := validator(value)
			if !partial.Valid {
				result.Valid = false
				result.Errors = append(result.Errors, partial.Errors...)
			}
		}
		return result
	}
}

// Required falha para nil e para strings vazias.
func Required(field string) Validator {
	return func(value any) Result {
		if value == nil {
			return fail(fmt.Sprintf("%s is required", field))
		}
		if s, isString := value.(string); isString && s == "" {
			return fail(fmt.Sprintf("%s is required", field))
		}
		return ok()
	}
}

func MinLength(field string, min int) Validator {
	return func(value any) Result {
		s, isString := value.(string)
		if !isString {
			return ok()
		}
		if len(s) < min {
			return fail(fmt.Sprintf("%s must have at least %d characters", field, min))
		}
		return ok()
	}
}

func MaxLength(field string, max int) Validator {
	return func(value any) Result {
		s, isString := value.(string)
		if !isString {
			return ok()
		}
		if len(s) > max {
			return fail(fmt.Sprintf("%s must have at most %d characters", field, max))
		}
		return ok()
	}
}

// OneOf valida pertencimento a um enum.
func OneOf(field string, allowed ...string) Validator {
	return func(value any) Result {
		s, isString := value.(string)
		if !isString {
			return fail(fmt.Sprintf("%s must be a string", field))
		}
		for _, candidate := range allowed {
			if s == candidate {
				return ok()
			}
		}
		return fail(fmt.Sprintf("%s must be one of %v", field, allowed))
	}
}

// Date valida strings ISO-8601 (formato de data ou timestamp completo).
func Date(field string) Validator {
	return func(value any) Result {
		if _, isTime := value.(time.Time); isTime {
			return ok()
		}

		s, isString := value.(string)
		if !isString {
			return fail(fmt.Sprintf("%s must be an ISO-8601 date", field))
		}
		if _, err := parseISODate(s); err != nil {
			return fail(fmt.Sprintf("%s must be an ISO-8601 date", field))
		}
		return ok()
	}
}

// FutureDate valida que a data está no futuro (datas bem formadas
// apenas; combine com Date para a forma).
func FutureDate(field string) Validator {
	return func(value any) Result {
		var parsed time.Time

		switch v := value.(type) {
		case time.Time:
			parsed = v
		case string:
			t, err := parseISODate(v)
			if err != nil {
				// A forma é problema do validator Date.
				return ok()
			}
			parsed = t
		default:
			return ok()
		}

		if !parsed.After(time.Now()) {
			return fail(fmt.Sprintf("%s must be in the future", field))
		}
		return ok()
	}
}

func parseISODate(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
