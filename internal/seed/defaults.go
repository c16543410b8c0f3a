package seed

// Defaults returns the rows a fresh installation starts with: the sample
// sponsors and the single site settings row.
func Defaults() []Set {
	return []Set{
		{
			Table:   "sponsor",
			Columns: []string{"name", "url", "active"},
			Rows: [][]any{
				{"GrowLight Pro", "https://example.com/growlight", true},
				{"Nutrients Plus", "https://example.com/nutrients", true},
				{"Hydro Systems", "https://example.com/hydro", true},
				{"Cannabis Seeds Co", "https://example.com/seeds", true},
				{"Grow Tent Master", "https://example.com/tents", true},
				{"420 Equipment", "https://example.com/equipment", true},
			},
		},
		{
			Table:   "site_setting",
			Columns: []string{"site_name", "maintenance_mode"},
			Rows:    [][]any{{"CannaSpot", "off"}},
		},
	}
}
