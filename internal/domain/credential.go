package domain

const (
	CredentialEducation     = "education"
	CredentialEmployment    = "employment"
	CredentialCertification = "certification"
	CredentialSkills        = "skills"
)

// CredentialType describes a category of verifiable claim and the documents it needs.
type CredentialType struct {
	Code              string   `json:"code"`
	Name              string   `json:"name"`
	Description       string   `json:"description"`
	RequiredDocuments []string `json:"required_documents"`
	ValidityMonths    int      `json:"validity_months"` // 0 = badge never expires
}

var credentialTypes = []CredentialType{
	{
		Code:              CredentialEducation,
		Name:              "Education",
		Description:       "Degrees and diplomas from accredited institutions",
		RequiredDocuments: []string{"diploma", "transcript"},
	},
	{
		Code:              CredentialEmployment,
		Name:              "Employment",
		Description:       "Current or past employment",
		RequiredDocuments: []string{"employment_letter"},
		ValidityMonths:    24,
	},
	{
		Code:              CredentialCertification,
		Name:              "Professional certification",
		Description:       "Licenses and professional certifications",
		RequiredDocuments: []string{"certificate"},
		ValidityMonths:    12,
	},
	{
		Code:              CredentialSkills,
		Name:              "Skills",
		Description:       "Skill assessments and portfolios",
		RequiredDocuments: []string{"assessment"},
		ValidityMonths:    36,
	},
}

// CredentialTypes returns a copy of the catalog.
func CredentialTypes() []CredentialType {
	out := make([]CredentialType, len(credentialTypes))
	copy(out, credentialTypes)
	return out
}

// LookupCredentialType finds a credential type by code.
func LookupCredentialType(code string) (CredentialType, bool) {
	for _, ct := range credentialTypes {
		if ct.Code == code {
			return ct, true
		}
	}
	return CredentialType{}, false
}

// MissingDocuments returns the required document kinds not present in have.
func (c CredentialType) MissingDocuments(have []VerificationDocument) []string {
	present := make(map[string]bool, len(have))
	for _, d := range have {
		present[d.Kind] = true
	}
	var missing []string
	for _, k := range c.RequiredDocuments {
		if !present[k] {
			missing = append(missing, k)
		}
	}
	return missing
}
