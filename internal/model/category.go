package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrUnknownCategory is returned when a category ID or name is not part of the registry.
var ErrUnknownCategory = errors.New("unknown category")

// CategoryID is the stable identifier of an accounting category.
type CategoryID string

// CategoryType indicates whether a category is for income, business expense, or personal spend.
type CategoryType string

const (
	// CategoryTypeIncome represents revenue categories.
	CategoryTypeIncome CategoryType = "income"
	// CategoryTypeExpense represents deductible business expense categories.
	CategoryTypeExpense CategoryType = "expense"
	// CategoryTypePersonal represents owner draws and personal spend.
	CategoryTypePersonal CategoryType = "personal"
)

// Known categories.
const (
	CategorySales                 CategoryID = "sales"
	CategoryMiscIncome            CategoryID = "misc_income"
	CategoryMeetingExpense        CategoryID = "meeting_expense"
	CategoryEntertainment         CategoryID = "entertainment"
	CategoryMeals                 CategoryID = "meals"
	CategoryTravel                CategoryID = "travel"
	CategoryCommunication         CategoryID = "communication"
	CategorySupplies              CategoryID = "supplies"
	CategoryFixedAssets           CategoryID = "fixed_assets"
	CategoryTraining              CategoryID = "training"
	CategoryBooks                 CategoryID = "books"
	CategorySoftware              CategoryID = "software"
	CategoryAdvertising           CategoryID = "advertising"
	CategoryUtilities             CategoryID = "utilities"
	CategoryRent                  CategoryID = "rent"
	CategoryOutsourcing           CategoryID = "outsourcing"
	CategoryFees                  CategoryID = "fees"
	CategoryInsurance             CategoryID = "insurance"
	CategoryTaxes                 CategoryID = "taxes"
	CategoryMiscellaneous         CategoryID = "miscellaneous"
	CategoryPersonal              CategoryID = "personal"
	CategoryPersonalFood          CategoryID = "personal_food"
	CategoryPersonalLiving        CategoryID = "personal_living"
	CategoryPersonalEntertainment CategoryID = "personal_entertainment"
)

// Category represents a valid accounting category.
type Category struct {
	ID           CategoryID
	Name         string
	JapaneseName string
	Type         CategoryType
}

var registry = []Category{
	{ID: CategorySales, Name: "Sales", JapaneseName: "売上高", Type: CategoryTypeIncome},
	{ID: CategoryMiscIncome, Name: "Miscellaneous Income", JapaneseName: "雑収入", Type: CategoryTypeIncome},
	{ID: CategoryMeetingExpense, Name: "Meeting Expense", JapaneseName: "会議費", Type: CategoryTypeExpense},
	{ID: CategoryEntertainment, Name: "Entertainment Expense", JapaneseName: "接待交際費", Type: CategoryTypeExpense},
	{ID: CategoryMeals, Name: "Meals", JapaneseName: "飲食費", Type: CategoryTypeExpense},
	{ID: CategoryTravel, Name: "Travel & Transportation", JapaneseName: "旅費交通費", Type: CategoryTypeExpense},
	{ID: CategoryCommunication, Name: "Communication", JapaneseName: "通信費", Type: CategoryTypeExpense},
	{ID: CategorySupplies, Name: "Supplies", JapaneseName: "消耗品費", Type: CategoryTypeExpense},
	{ID: CategoryFixedAssets, Name: "Fixed Assets", JapaneseName: "工具器具備品", Type: CategoryTypeExpense},
	{ID: CategoryTraining, Name: "Training & Education", JapaneseName: "研修費", Type: CategoryTypeExpense},
	{ID: CategoryBooks, Name: "Books & Periodicals", JapaneseName: "新聞図書費", Type: CategoryTypeExpense},
	{ID: CategorySoftware, Name: "Software & Tools", JapaneseName: "ソフトウェア利用料", Type: CategoryTypeExpense},
	{ID: CategoryAdvertising, Name: "Advertising", JapaneseName: "広告宣伝費", Type: CategoryTypeExpense},
	{ID: CategoryUtilities, Name: "Utilities", JapaneseName: "水道光熱費", Type: CategoryTypeExpense},
	{ID: CategoryRent, Name: "Rent", JapaneseName: "地代家賃", Type: CategoryTypeExpense},
	{ID: CategoryOutsourcing, Name: "Outsourcing", JapaneseName: "外注費", Type: CategoryTypeExpense},
	{ID: CategoryFees, Name: "Fees & Commissions", JapaneseName: "支払手数料", Type: CategoryTypeExpense},
	{ID: CategoryInsurance, Name: "Insurance", JapaneseName: "損害保険料", Type: CategoryTypeExpense},
	{ID: CategoryTaxes, Name: "Taxes & Dues", JapaneseName: "租税公課", Type: CategoryTypeExpense},
	{ID: CategoryMiscellaneous, Name: "Miscellaneous", JapaneseName: "雑費", Type: CategoryTypeExpense},
	{ID: CategoryPersonal, Name: "Personal", JapaneseName: "事業主貸", Type: CategoryTypePersonal},
	{ID: CategoryPersonalFood, Name: "Personal / Food", JapaneseName: "食費", Type: CategoryTypePersonal},
	{ID: CategoryPersonalLiving, Name: "Personal / Living", JapaneseName: "生活費", Type: CategoryTypePersonal},
	{ID: CategoryPersonalEntertainment, Name: "Personal / Entertainment", JapaneseName: "娯楽費", Type: CategoryTypePersonal},
}

var registryByID = func() map[CategoryID]Category {
	m := make(map[CategoryID]Category, len(registry))
	for _, c := range registry {
		m[c.ID] = c
	}
	return m
}()

// Categories returns every registered category sorted by ID.
func Categories() []Category {
	out := make([]Category, len(registry))
	copy(out, registry)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// LookupCategory returns the category registered under id.
func LookupCategory(id CategoryID) (Category, bool) {
	c, ok := registryByID[id]
	return c, ok
}

// MustCategory returns the category registered under id and panics if it is unknown.
// It is meant for package-level tables that are validated at init time.
func MustCategory(id CategoryID) Category {
	c, ok := registryByID[id]
	if !ok {
		panic(fmt.Sprintf("%v: %q", ErrUnknownCategory, id))
	}
	return c
}

// ResolveCategory validates an ID/name pair supplied by a caller.
// An empty name resolves to the registered name; a non-empty one must match
// the registered English or Japanese name, case-insensitively.
func ResolveCategory(id CategoryID, name string) (Category, error) {
	c, ok := registryByID[id]
	if !ok {
		return Category{}, fmt.Errorf("%w: id %q", ErrUnknownCategory, id)
	}
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, c.Name) || name == c.JapaneseName {
		return c, nil
	}
	return Category{}, fmt.Errorf("%w: name %q does not match id %q", ErrUnknownCategory, name, id)
}

// IsBusinessDefault reports the business flag a category implies when no other signal exists.
func (c Category) IsBusinessDefault() bool {
	return c.Type != CategoryTypePersonal
}
