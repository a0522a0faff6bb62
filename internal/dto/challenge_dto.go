package dto

type ChallengeQuestion struct {
	Question  string `json:"question"`
	Timestamp int64  `json:"timestamp"`
	Token     string `json:"token,omitempty"`
}

// ChallengeServerData is only sent in stateless mode, where the client echoes
// it back on submission.
type ChallengeServerData struct {
	ExpectedAnswer string `json:"expectedAnswer"`
	Timestamp      int64  `json:"timestamp"`
}

type ChallengeResponse struct {
	Challenge  ChallengeQuestion    `json:"challenge"`
	ServerData *ChallengeServerData `json:"serverData,omitempty"`
}

type VerifyChallengeRequest struct {
	// Answer is a string or a JSON number.
	Answer         any    `json:"answer"`
	ExpectedAnswer string `json:"expectedAnswer"`
	Timestamp      int64  `json:"timestamp"`
	Token          string `json:"token"`
}

type VerifyChallengeResponse struct {
	Valid bool `json:"valid"`
}
