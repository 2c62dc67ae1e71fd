// Package validate holds the per-form request validators. Each validator is
// a pure function from a form to a Result; callers branch on IsValid and
// return the Errors map as the 400 body. When several rules fail for the
// same field the message written last wins, and rule order within a form is
// therefore part of the contract.
package validate

import (
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// checker backs the email/URL well-formedness rules.
var checker = validator.New()

// Result is the outcome of validating one form. IsValid is true iff Errors
// is empty.
type Result struct {
	Errors  map[string]string
	IsValid bool
}

type errorSet map[string]string

func (e errorSet) set(field, message string) { e[field] = message }

func result(errs errorSet) Result {
	return Result{Errors: errs, IsValid: len(errs) == 0}
}

func isEmail(v string) bool {
	return checker.Var(v, "email") == nil
}

func isURL(v string) bool {
	return checker.Var(v, "url") == nil
}

// lengthBetween counts characters, not bytes.
func lengthBetween(v string, min, max int) bool {
	n := utf8.RuneCountInString(v)
	return n >= min && n <= max
}

// RegisterForm is the registration request body. Absent fields decode to
// empty strings; missing and empty are deliberately indistinguishable.
type RegisterForm struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	// Password2 is the confirmation the client repeats back.
	Password2 string `json:"password2"`
}

// Register checks a registration form.
func Register(f RegisterForm) Result {
	errs := errorSet{}

	if !lengthBetween(f.Name, 2, 30) {
		errs.set("name", "Name must be between 2 and 30 characters.")
	}
	if f.Name == "" {
		errs.set("name", "Name is required.")
	}

	if f.Email == "" {
		errs.set("email", "Email is required.")
	}
	if !isEmail(f.Email) {
		errs.set("email", "Email is invalid.")
	}

	if !lengthBetween(f.Password, 6, 30) {
		errs.set("password", "Password must be between 6 and 30 characters.")
	}
	if f.Password == "" {
		errs.set("password", "Password is required.")
	}

	if f.Password2 == "" {
		errs.set("password2", "Confirm password is required.")
	}
	if f.Password2 != f.Password {
		errs.set("password2", "Passwords must match.")
	}

	return result(errs)
}

// LoginForm is the login request body.
type LoginForm struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login checks a login form.
func Login(f LoginForm) Result {
	errs := errorSet{}

	if !isEmail(f.Email) {
		errs.set("email", "Please provide a valid email.")
	}
	if f.Password == "" {
		errs.set("password", "Password is required.")
	}

	return result(errs)
}

// ProfileForm is the create-or-edit profile request body. Skills arrives as
// a comma-separated string.
type ProfileForm struct {
	Handle   string `json:"handle"`
	Company  string `json:"company"`
	Website  string `json:"website"`
	Location string `json:"location"`
	Status   string `json:"status"`
	Skills   string `json:"skills"`
	Bio      string `json:"bio"`
	Github   string `json:"github"`

	Youtube   string `json:"youtube"`
	Twitter   string `json:"twitter"`
	Facebook  string `json:"facebook"`
	Linkedin  string `json:"linkedin"`
	Instagram string `json:"instagram"`
}

// SkillList splits the comma-separated skills field.
func (f ProfileForm) SkillList() []string {
	if strings.TrimSpace(f.Skills) == "" {
		return []string{}
	}
	parts := strings.Split(f.Skills, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

// Profile checks a profile form. The social links are optional but must be
// well-formed URLs when present.
func Profile(f ProfileForm) Result {
	errs := errorSet{}

	if !lengthBetween(f.Handle, 2, 40) {
		errs.set("handle", "Handle must be between 2 and 40 characters.")
	}
	if f.Handle == "" {
		errs.set("handle", "Handle is required.")
	}

	if f.Status == "" {
		errs.set("status", "Status is required.")
	}
	if f.Skills == "" {
		errs.set("skills", "Skills is required.")
	}

	links := map[string]string{
		"website":   f.Website,
		"youtube":   f.Youtube,
		"twitter":   f.Twitter,
		"facebook":  f.Facebook,
		"linkedin":  f.Linkedin,
		"instagram": f.Instagram,
	}
	for field, value := range links {
		if value == "" {
			continue
		}
		if !isURL(value) {
			errs.set(field, "Not a valid URL.")
		}
	}

	return result(errs)
}

// ExperienceForm is the add-experience request body.
type ExperienceForm struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	From        string `json:"from"`
	To          string `json:"to"`
	Current     bool   `json:"current"`
	Description string `json:"description"`
}

// Experience checks an experience entry.
func Experience(f ExperienceForm) Result {
	errs := errorSet{}

	if f.Title == "" {
		errs.set("title", "Job title is required.")
	}
	if f.Company == "" {
		errs.set("company", "Company is required.")
	}
	if f.From == "" {
		errs.set("from", "From date is required.")
	}

	return result(errs)
}

// EducationForm is the add-education request body.
type EducationForm struct {
	School       string `json:"school"`
	Degree       string `json:"degree"`
	FieldOfStudy string `json:"fieldOfStudy"`
	From         string `json:"from"`
	To           string `json:"to"`
	Current      bool   `json:"current"`
	Description  string `json:"description"`
}

// Education checks an education entry.
func Education(f EducationForm) Result {
	errs := errorSet{}

	if f.School == "" {
		errs.set("school", "School is required.")
	}
	if f.Degree == "" {
		errs.set("degree", "Degree is required.")
	}
	if f.From == "" {
		errs.set("from", "From date is required.")
	}
	if f.FieldOfStudy == "" {
		errs.set("fieldOfStudy", "Field of study is required.")
	}

	return result(errs)
}

// PostForm is the body for creating a post or a comment; both carry the
// same text constraints.
type PostForm struct {
	Text   string `json:"text"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// Post checks a post or comment body.
func Post(f PostForm) Result {
	errs := errorSet{}

	if !lengthBetween(f.Text, 10, 300) {
		errs.set("text", "Text field must be between 10 and 300 characters.")
	}
	if f.Text == "" {
		errs.set("text", "Text field is required.")
	}

	return result(errs)
}
