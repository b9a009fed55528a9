package models

import "encoding/json"

type Experience struct {
	Title       string `json:"title"`
	Company     string `json:"company"`
	StartDate   string `json:"startDate,omitempty"`
	EndDate     string `json:"endDate,omitempty"`
	Current     bool   `json:"current,omitempty"`
	Description string `json:"description,omitempty"`
	Tech        string `json:"tech,omitempty"`
}

type Education struct {
	Degree    string `json:"degree"`
	Institute string `json:"institute"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
	Score     string `json:"score,omitempty"`
}

type Project struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Tech        string `json:"tech,omitempty"`
	URL         string `json:"url,omitempty"`
}

type Social struct {
	LinkedIn string `json:"linkedin,omitempty"`
	GitHub   string `json:"github,omitempty"`
	Website  string `json:"website,omitempty"`
}

type Additional struct {
	Languages      []string `json:"languages,omitempty"`
	Certifications []string `json:"certifications,omitempty"`
	Achievements   []string `json:"achievements,omitempty"`
}

// Profile is a user's CV-like document, edited one section at a time.
// Unknown sections survive round trips through Extra.
type Profile struct {
	Username   string `json:"username"`
	FullName   string `json:"fullName"`
	Email      string `json:"email"`
	ProfilePic string `json:"profilePic,omitempty"`

	Mobile  string `json:"mobile,omitempty"`
	DOB     string `json:"dob,omitempty"`
	Gender  string `json:"gender,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
	Address string `json:"address,omitempty"`

	Summary string `json:"summary,omitempty"`

	Experience []Experience `json:"experience,omitempty"`
	Education  []Education  `json:"education,omitempty"`
	Skills     []string     `json:"skills,omitempty"`
	Projects   []Project    `json:"projects,omitempty"`
	Social     *Social      `json:"social,omitempty"`
	Additional *Additional  `json:"additional,omitempty"`

	Extra map[string]any `json:"-"`
}

// profileDoc mirrors Profile without its JSON methods so the fixed fields
// can be encoded with plain struct tags.
type profileDoc Profile

func (p Profile) MarshalJSON() ([]byte, error) {
	fixed, err := json.Marshal(profileDoc(p))
	if err != nil {
		return nil, err
	}
	if len(p.Extra) == 0 {
		return fixed, nil
	}

	var out map[string]any
	if err := json.Unmarshal(fixed, &out); err != nil {
		return nil, err
	}
	for k, v := range p.Extra {
		if _, taken := out[k]; !taken {
			out[k] = v
		}
	}

	return json.Marshal(out)
}

func (p *Profile) UnmarshalJSON(data []byte) error {
	var doc profileDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*p = Profile(doc)

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.Extra = nil
	for k, v := range raw {
		if isProfileField(k) {
			continue
		}
		if p.Extra == nil {
			p.Extra = make(map[string]any)
		}
		p.Extra[k] = v
	}

	return nil
}

var profileFieldKeys = map[string]struct{}{
	"username": {}, "fullName": {}, "email": {}, "profilePic": {},
	"mobile": {}, "dob": {}, "gender": {}, "city": {}, "state": {},
	"country": {}, "address": {}, "summary": {}, "experience": {},
	"education": {}, "skills": {}, "projects": {}, "social": {}, "additional": {},
	"password": {},
}

// isProfileField also covers the legacy password key, which must never be
// copied into Extra.
func isProfileField(key string) bool {
	_, ok := profileFieldKeys[key]
	return ok
}
