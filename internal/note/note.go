package note

import "time"

type Question struct {
	ID        string `json:"id"`
	NoteID    string `json:"noteId"`
	Question  string `json:"question"`
	Completed bool   `json:"completed"`
}

type Note struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	Title     string     `json:"title"`
	Notes     string     `json:"notes"`
	DateAdded time.Time  `json:"dateAdded"`
	Questions []Question `json:"questions"`
}

type CreateNoteRequest struct {
	Title string `json:"title" validate:"required"`
	Notes string `json:"notes" validate:"required"`
}

type UpdateQuestionRequest struct {
	Completed bool `json:"completed"`
}
