package listing

import (
	"errors"
	"fmt"
	"html"
	"io"
	"math"
	"path/filepath"
	"reflect"
	"slices"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"

	"luxauction-api/internal/domain"
)

// Upload is one attached image as received from the caller.
type Upload struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// Submission is an untrusted create-listing request, values exactly as posted.
type Submission struct {
	Title           string
	Category        string
	Description     string
	StartingBid     string
	ReservePrice    string
	AuctionDuration string
	Materials       []string
	Era             string
	Condition       string
	Weight          string
	Dimensions      string
	Certificates    string
	ShippingInfo    string
	Images          []Upload
}

// Draft is a Submission that passed validation.
type Draft struct {
	Title           string
	Category        string
	Description     string
	Condition       string
	Era             *string
	Materials       []string
	Weight          *float64
	Dimensions      *string
	HasCertificates bool
	ShippingInfo    *string
	StartingBid     float64
	ReservePrice    *float64
	DurationDays    int
	Images          []Upload
}

type Rules struct {
	Durations     []int
	MaxImages     int
	MaxImageBytes int64
	AllowedExt    []string
}

func DefaultRules() Rules {
	return Rules{
		Durations:     []int{1, 3, 7, 14},
		MaxImages:     5,
		MaxImageBytes: 5 << 20,
		AllowedExt:    []string{".jpg", ".jpeg", ".png", ".webp", ".gif"},
	}
}

type textFields struct {
	Title        string `json:"title" validate:"required,max=200"`
	Category     string `json:"category" validate:"required,max=64"`
	Description  string `json:"description" validate:"required,max=5000"`
	Condition    string `json:"condition" validate:"max=64"`
	Era          string `json:"era" validate:"max=64"`
	Dimensions   string `json:"dimensions" validate:"max=128"`
	ShippingInfo string `json:"shippingInfo" validate:"max=2000"`
}

// Bounds of the listings columns: prices are decimal(18,2), weight is
// decimal(10,2), materials are joined into 512 characters.
const (
	maxPrice        = 1e16
	maxWeight       = 1e8
	maxMaterials    = 20
	maxMaterialsLen = 512
)

var labels = map[string]string{
	"title":        "Title",
	"category":     "Category",
	"description":  "Description",
	"condition":    "Condition",
	"era":          "Era",
	"dimensions":   "Dimensions",
	"shippingInfo": "Shipping Info",
}

type Validator struct {
	rules  Rules
	v      *validator.Validate
	policy *bluemonday.Policy
}

func NewValidator(rules Rules) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{rules: rules, v: v, policy: bluemonday.StrictPolicy()}
}

// Validate checks every field and reports all failures at once as a
// *domain.ValidationError keyed by form field name.
func (val *Validator) Validate(s Submission) (*Draft, error) {
	errs := map[string]string{}

	text := textFields{
		Title:        val.clean(s.Title),
		Category:     val.clean(s.Category),
		Description:  val.clean(s.Description),
		Condition:    val.clean(s.Condition),
		Era:          val.clean(s.Era),
		Dimensions:   val.clean(s.Dimensions),
		ShippingInfo: val.clean(s.ShippingInfo),
	}
	if err := val.v.Struct(text); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return nil, err
		}
		for _, fe := range verrs {
			errs[fe.Field()] = fieldMessage(fe)
		}
	}

	d := &Draft{
		Title:        text.Title,
		Category:     text.Category,
		Description:  text.Description,
		Condition:    text.Condition,
		Era:          optional(text.Era),
		Dimensions:   optional(text.Dimensions),
		ShippingInfo: optional(text.ShippingInfo),
		Materials:    val.materials(s.Materials),
	}

	if bid, ok := parseAmount(s.StartingBid); !ok {
		errs["startingBid"] = "Starting Bid must be a valid non-negative number."
	} else if bid >= maxPrice {
		errs["startingBid"] = "Starting Bid is too large."
	} else {
		d.StartingBid = bid
	}

	if strings.TrimSpace(s.ReservePrice) != "" {
		reserve, ok := parseAmount(s.ReservePrice)
		switch {
		case !ok:
			errs["reservePrice"] = "Reserve Price must be a valid non-negative number."
		case reserve >= maxPrice:
			errs["reservePrice"] = "Reserve Price is too large."
		case errs["startingBid"] == "" && reserve < d.StartingBid:
			errs["reservePrice"] = "Reserve Price must not be lower than the Starting Bid."
		default:
			d.ReservePrice = &reserve
		}
	}

	if strings.TrimSpace(s.Weight) != "" {
		w, ok := parseAmount(s.Weight)
		switch {
		case !ok:
			errs["weight"] = "Weight must be a valid non-negative number."
		case w >= maxWeight:
			errs["weight"] = "Weight is too large."
		default:
			d.Weight = &w
		}
	}

	if msg := materialsProblem(d.Materials); msg != "" {
		errs["materials"] = msg
	}

	days, err := strconv.Atoi(strings.TrimSpace(s.AuctionDuration))
	if err != nil || days <= 0 || !slices.Contains(val.rules.Durations, days) {
		errs["auctionDuration"] = fmt.Sprintf("Auction Duration must be one of %s days.", joinInts(val.rules.Durations))
	} else {
		d.DurationDays = days
	}

	if c := strings.TrimSpace(s.Certificates); c != "" {
		switch strings.ToLower(c) {
		case "on", "yes":
			d.HasCertificates = true
		default:
			b, err := strconv.ParseBool(c)
			if err != nil {
				errs["certificates"] = "Certificates must be true or false."
			}
			d.HasCertificates = b
		}
	}

	images, msg := val.images(s.Images)
	if msg != "" {
		errs["images"] = msg
	}
	d.Images = images

	if len(errs) > 0 {
		return nil, &domain.ValidationError{Fields: errs}
	}
	return d, nil
}

// clean trims and strips markup, keeping plain-text entities readable.
// Unescaping can surface tags that were sent as entities, so it repeats
// until the text is stable.
func (val *Validator) clean(s string) string {
	for range 8 {
		next := html.UnescapeString(val.policy.Sanitize(s))
		if next == s {
			return strings.TrimSpace(s)
		}
		s = next
	}
	// still changing: keep the sanitized form with entities escaped
	return strings.TrimSpace(val.policy.Sanitize(s))
}

// materials keeps first occurrences in input order. Commas would break the
// joined storage form, so they are replaced.
func (val *Validator) materials(in []string) []string {
	var out []string
	for _, m := range in {
		m = strings.TrimSpace(strings.ReplaceAll(val.clean(m), ",", " "))
		if m == "" || slices.Contains(out, m) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func materialsProblem(ms []string) string {
	if len(ms) > maxMaterials {
		return fmt.Sprintf("At most %d materials can be listed.", maxMaterials)
	}
	if j := domain.JoinList(ms); j != nil && len(*j) > maxMaterialsLen {
		return fmt.Sprintf("Materials must be at most %d characters in total.", maxMaterialsLen)
	}
	return ""
}

// images drops zero-length parts and checks count, size and extension.
func (val *Validator) images(in []Upload) ([]Upload, string) {
	out := make([]Upload, 0, len(in))
	for _, up := range in {
		if up.Size > 0 && up.Open != nil {
			out = append(out, up)
		}
	}
	if val.rules.MaxImages > 0 && len(out) > val.rules.MaxImages {
		return out, fmt.Sprintf("At most %d images can be attached.", val.rules.MaxImages)
	}
	for _, up := range out {
		name := filepath.Base(up.Name)
		if !slices.Contains(val.rules.AllowedExt, strings.ToLower(filepath.Ext(name))) {
			return out, fmt.Sprintf("Image '%s' has an unsupported file type.", name)
		}
		if val.rules.MaxImageBytes > 0 && up.Size > val.rules.MaxImageBytes {
			return out, fmt.Sprintf("Image '%s' is too large (max %d MB).", name, val.rules.MaxImageBytes>>20)
		}
	}
	return out, ""
}

func fieldMessage(fe validator.FieldError) string {
	label := labels[fe.Field()]
	if label == "" {
		label = fe.Field()
	}
	switch fe.Tag() {
	case "required":
		return label + " is required."
	case "max":
		return fmt.Sprintf("%s must be at most %s characters.", label, fe.Param())
	}
	return label + " is invalid."
}

func parseAmount(raw string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, false
	}
	return v, true
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func joinInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
