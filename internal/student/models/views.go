package models

// StudentView is the public shape of a student on the wire.
type StudentView struct {
	ID        string  `json:"id"`
	Matricula string  `json:"matricula"`
	Nome      string  `json:"nome"`
	Idade     int     `json:"idade"`
	Email     *string `json:"email,omitempty"`
}

// StudentList wraps GET /students results.
type StudentList struct {
	Students []StudentView `json:"students"`
}

// UpdateEmailResult reports whether an email update found its student.
type UpdateEmailResult struct {
	Success bool `json:"success"`
}

func ToView(s *Student) StudentView {
	return StudentView{
		ID:        s.ID().String(),
		Matricula: s.Matricula(),
		Nome:      s.Name(),
		Idade:     s.Age(),
		Email:     s.Email(),
	}
}

// ToList maps students to views. The result is never nil so an empty
// registry encodes as {"students": []}.
func ToList(students []*Student) *StudentList {
	views := make([]StudentView, 0, len(students))
	for _, s := range students {
		views = append(views, ToView(s))
	}
	return &StudentList{Students: views}
}
