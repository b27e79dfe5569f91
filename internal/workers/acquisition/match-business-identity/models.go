package matchbusinessidentity

import "storefront-acquisition/internal/models"

type Input struct {
	Business   models.BusinessRecord `json:"business"`
	Candidates []models.CandidatePOI `json:"candidates"`
}

// Output is prefixed so it does not collide with other stage variables in
// the process scope.
type Output struct {
	Matched         bool                 `json:"matched"`
	Match           *models.MatchResult  `json:"match,omitempty"`
	MatchedPlace    *models.CandidatePOI `json:"matchedPlace,omitempty"`
	CandidateScores []models.MatchResult `json:"candidateScores"`
	IdentityStatus  models.Status        `json:"identityStatus"`
	IdentityIssues  []models.Issue       `json:"identityIssues,omitempty"`
}
