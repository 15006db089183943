package domain

// Category is the spending bucket a transaction is filed under.
type Category string

const (
	FoodAndDrink    Category = "Food & Drink"
	OutsideFood     Category = "Outside Food"
	GroceryShopping Category = "Grocery Shopping"
	Commute         Category = "Commute"
	Travel          Category = "Travel"
	Shopping        Category = "Shopping"
	Entertainment   Category = "Entertainment"
	BillsUtilities  Category = "Bills & Utilities"
	HealthWellness  Category = "Health & Wellness"
	PersonalCare    Category = "Personal Care"
	GiftsDonations  Category = "Gifts & Donations"
	Lending         Category = "Lending"
	Repayment       Category = "Repayment"
	EMI             Category = "EMI"
	Income          Category = "Income"
	Rent            Category = "Rent"
	Maintenance     Category = "Maintenance"
	Internet        Category = "Internet"
	Insurance       Category = "Insurance"
	Investment      Category = "Investment"
	Tax             Category = "Tax"
	Services        Category = "Services"
	Uncategorized   Category = "Uncategorized"
)

// Categories lists every category in display order.
var Categories = []Category{
	FoodAndDrink,
	OutsideFood,
	GroceryShopping,
	Commute,
	Travel,
	Shopping,
	Entertainment,
	BillsUtilities,
	HealthWellness,
	PersonalCare,
	GiftsDonations,
	Lending,
	Repayment,
	EMI,
	Income,
	Rent,
	Maintenance,
	Internet,
	Insurance,
	Investment,
	Tax,
	Services,
	Uncategorized,
}

var categorySet = func() map[Category]bool {
	m := make(map[Category]bool, len(Categories))
	for _, c := range Categories {
		m[c] = true
	}
	return m
}()

// Valid reports whether c belongs to the fixed category set.
func (c Category) Valid() bool {
	return categorySet[c]
}
