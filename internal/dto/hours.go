package dto

// CourseHours is the per-course line of a teacher's monthly summary.
// Hours and SubstitutionHours are decimal hours (90 minutes = 1.5).
type CourseHours struct {
	CourseID          string  `json:"course_id"`
	CourseName        string  `json:"course_name"`
	Hours             float64 `json:"hours"`
	SubstitutionHours float64 `json:"substitution_hours"`
	Location          string  `json:"location"`
}

// TeacherMonthlyHours is the monthly teaching-hours report for one teacher.
// TotalHours covers ordinary sessions only; substitution teaching is
// accounted for separately in TotalSubstitutionHours.
type TeacherMonthlyHours struct {
	TeacherID              string        `json:"teacher_id"`
	Year                   int           `json:"year"`
	Month                  int           `json:"month"`
	TotalHours             float64       `json:"total_hours"`
	TotalSubstitutionHours float64       `json:"total_substitution_hours"`
	Courses                []CourseHours `json:"courses"`
}
