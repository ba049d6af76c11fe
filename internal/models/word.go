package models

// VocabWord is one vocabulary item inside a unit
type VocabWord struct {
	English     string `json:"english"`
	Translation string `json:"translation"`
}

// Unit is a grade-scoped group of vocabulary words
type Unit struct {
	ID    string      `json:"id"`
	Grade string      `json:"grade"`
	Title string      `json:"title"`
	Words []VocabWord `json:"words"`
}
