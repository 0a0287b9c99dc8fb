package domain

// MealSlot represents a meal slot served by the menu provider
type MealSlot string

const (
	MealBreakfast MealSlot = "kahvalti"
	MealDinner    MealSlot = "aksam"
)

// Menu represents one meal slot of one calendar day
type Menu struct {
	Date   string   `json:"tarih"` // ISO date (YYYY-MM-DD)
	Slot   MealSlot `json:"ogun"`
	Dishes []string `json:"yemekler"`
	Note   string   `json:"not,omitempty"`
}

// HasDishes checks whether the menu carries any dish entries
func (m *Menu) HasDishes() bool {
	return m != nil && len(m.Dishes) > 0
}
