package validation

import (
	"errors"
	"math"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Field rules applied once the raw values decoded to the expected JSON types.
// Bounds mirror MaxNameLength, MinPartySize and MaxPartySize.
type createRules struct {
	Name      string   `json:"name" validate:"required,max=100"`
	Date      string   `json:"date" validate:"required,datetime=2006-01-02"`
	Time      string   `json:"time" validate:"required"`
	PartySize *float64 `json:"partySize" validate:"required,whole,min=1,max=50"`
	Status    string   `json:"status" validate:"omitempty,oneof=UPCOMING ARRIVED A_VENIR ARRIVE"`
}

type updateRules struct {
	Name      *string  `json:"name" validate:"omitempty,min=1,max=100"`
	Date      *string  `json:"date" validate:"omitempty,datetime=2006-01-02"`
	Time      *string  `json:"time" validate:"omitempty,min=1"`
	PartySize *float64 `json:"partySize" validate:"omitempty,whole,min=1,max=50"`
	Status    *string  `json:"status" validate:"omitempty,oneof=UPCOMING ARRIVED A_VENIR ARRIVE"`
}

// fieldOrder keeps issues in the order fields appear on the form.
var fieldOrder = map[string]int{
	"name": 0, "date": 1, "time": 2, "partySize": 3, "phone": 4, "notes": 5, "status": 6,
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		return name
	})
	if err := v.RegisterValidation("whole", func(fl validator.FieldLevel) bool {
		value := fl.Field().Float()
		return value == math.Trunc(value)
	}); err != nil {
		panic(err)
	}
	return v
}

// checkRules runs the struct rules and appends one issue per failing field.
// Fields that already carry a type issue are not reported twice.
func checkRules(rules any, vErr *ValidationError) {
	err := validate.Struct(rules)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		vErr.Add("", err.Error())
		return
	}
	for _, fe := range fieldErrs {
		if vErr.hasPath(fe.Field()) {
			continue
		}
		vErr.Add(fe.Field(), ruleMessage(fe))
	}
}

func ruleMessage(fe validator.FieldError) string {
	switch fe.Field() {
	case "name":
		if fe.Tag() == "max" {
			return "le nom est trop long (100 caractères maximum)"
		}
		return "le nom est obligatoire"
	case "date":
		if fe.Tag() == "required" {
			return "la date est obligatoire"
		}
		if value, ok := fe.Value().(string); ok && isoDatePattern.MatchString(value) {
			return "date inexistante"
		}
		return "format de date invalide (YYYY-MM-DD attendu)"
	case "time":
		return "l'heure est obligatoire"
	case "partySize":
		switch fe.Tag() {
		case "required":
			return "le nombre de personnes est obligatoire"
		case "whole":
			return "le nombre de personnes doit être un entier"
		case "min":
			return "le nombre de personnes doit être au moins 1"
		}
		return "nombre de personnes trop élevé (50 maximum)"
	case "status":
		return "statut inconnu (UPCOMING ou ARRIVED attendu)"
	}
	return "valeur invalide"
}

func sortIssues(vErr *ValidationError) {
	sort.SliceStable(vErr.Issues, func(i, j int) bool {
		return issueRank(vErr.Issues[i].Path) < issueRank(vErr.Issues[j].Path)
	})
}

func issueRank(path string) int {
	if rank, ok := fieldOrder[path]; ok {
		return rank
	}
	return len(fieldOrder)
}
