package features

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const (
	// Present is the answer that marks a symptom as present.
	Present = "Ya"
	// Absent is the usual negative answer; anything other than Present counts as absent.
	Absent = "Tidak"
	// Male is the gender answer encoded as 1.
	Male = "Pria"
	// Female is the other accepted gender answer.
	Female = "Wanita"
)

// Answers is the raw questionnaire keyed by the names in Keys.
type Answers map[string]any

// Encode maps answers to a Vector. Malformed or missing answers encode as 0.
func Encode(answers Answers) Vector {
	var v Vector
	v[Age] = float64(parseAge(answers["age"]))
	if text(answers["gender"]) == Male {
		v[GenderMale] = 1
	}
	for i := Polyuria; i < Size; i++ {
		if text(answers[Keys[i]]) == Present {
			v[i] = 1
		}
	}
	return v
}

// Text returns the answer for key as it should be stored for audit.
func (a Answers) Text(key string) string {
	val, ok := a[key]
	if !ok || val == nil {
		return ""
	}
	switch t := val.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return fmt.Sprint(t)
	}
}

func text(val any) string {
	s, _ := val.(string)
	return s
}

func parseAge(val any) int {
	var age int
	switch t := val.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) || t > math.MaxInt32 {
			return 0
		}
		age = int(t)
	case int:
		age = t
	case int64:
		age = int(t)
	case json.Number:
		if n, err := t.Int64(); err == nil {
			age = int(n)
		} else if f, err := t.Float64(); err == nil {
			return parseAge(f)
		}
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(t))
		if err != nil {
			return 0
		}
		age = n
	}
	if age < 0 {
		return 0
	}
	return age
}
