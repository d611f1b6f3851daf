package model

// TimeOfDay はおすすめ食事の時間帯を表す。
type TimeOfDay string

const (
	TimeOfDayMorning   TimeOfDay = "morning"
	TimeOfDayAfternoon TimeOfDay = "afternoon"
	TimeOfDayNight     TimeOfDay = "night"
)

// Meal はおすすめ食事を表す。
type Meal struct {
	ID           string
	Name         string
	Description  string
	Category     string
	TimeOfDay    []TimeOfDay
	ImageURL     string
	Calories     int
	Protein      int
	Carbs        int
	Fats         int
	Ingredients  []string
	Instructions []string
}

// Dietician は相談可能な栄養士を表す。
type Dietician struct {
	ID            string
	Name          string
	Specialty     string
	Bio           string
	ImageURL      string
	Rating        float64
	Reviews       int
	RatePerMinute float64
	Available     bool
}
