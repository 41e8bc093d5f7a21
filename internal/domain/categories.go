package domain

// DefaultCategories is the built-in chart of bookkeeping categories, with
// their chart-of-accounts codes. Users may book against free-text categories
// as well; this list only seeds the UI picker.
var DefaultCategories = []Category{
	{ID: "inc-1", Name: "Ventes de produits/marchandises", Code: "70", Type: Income},
	{ID: "inc-2", Name: "Prestations de services", Code: "706", Type: Income},
	{ID: "inc-3", Name: "Subventions d'exploitation", Code: "74", Type: Income},
	{ID: "inc-4", Name: "Autres produits d'exploitation", Code: "75", Type: Income},
	{ID: "inc-5", Name: "Produits financiers", Code: "76", Type: Income},
	{ID: "inc-6", Name: "Autres recettes", Code: "78", Type: Income},

	{ID: "exp-1", Name: "Achats de marchandises", Code: "60", Type: Expense},
	{ID: "exp-2", Name: "Matières premières et fournitures", Code: "601", Type: Expense},
	{ID: "exp-3", Name: "Fournitures de bureau", Code: "6064", Type: Expense},
	{ID: "exp-4", Name: "Loyer", Code: "613", Type: Expense},
	{ID: "exp-5", Name: "Électricité et eau", Code: "6061", Type: Expense},
	{ID: "exp-6", Name: "Téléphone et internet", Code: "626", Type: Expense},
	{ID: "exp-7", Name: "Salaires et charges du personnel", Code: "64", Type: Expense},
	{ID: "exp-8", Name: "Impôts et taxes", Code: "63", Type: Expense},
	{ID: "exp-9", Name: "Transport et déplacements", Code: "624", Type: Expense},
	{ID: "exp-10", Name: "Autres charges", Code: "65", Type: Expense},
}

// Keyword sets for the income statement expense partition. They must stay
// disjoint: a category matching a purchase keyword must never match a
// personnel keyword, otherwise the residual bucket double-counts.
var (
	PurchaseKeywords  = []string{"achat"}
	PersonnelKeywords = []string{"salaire", "personnel"}
)
