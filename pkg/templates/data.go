// pkg/templates/data.go
package templates

// Own Funds Template (C 01.00)
var ownFundsTemplate = &Template{
	TemplateCode: "C_01.00",
	TemplateName: "Own Funds",
	Description:  "Composition of own funds including CET1, AT1, and Tier 2 capital",
	Fields: []TemplateField{
		// CET1 Capital - Instruments and Reserves
		{
			FieldCode:       "C_01.00_r010",
			FieldName:       "Capital instruments and related share premium accounts",
			Description:     "Capital instruments eligible as CET1 and their related share premium accounts",
			ValidationRules: []string{"Must be non-negative", "Requires verification of instrument eligibility"},
		},
		{
			FieldCode:       "C_01.00_r020",
			FieldName:       "Retained earnings",
			Description:     "Retained earnings including verified interim or year-end profits",
			ValidationRules: []string{"Must exclude foreseeable charges or dividends", "Requires auditor verification"},
		},
		{
			FieldCode:       "C_01.00_r030",
			FieldName:       "Accumulated other comprehensive income",
			Description:     "Accumulated other comprehensive income and other disclosed reserves",
			ValidationRules: []string{"Must be non-negative"},
		},
		{
			FieldCode:       "C_01.00_r040",
			FieldName:       "Funds for general banking risk",
			Description:     "Funds for general banking risk recognized in equity",
			ValidationRules: []string{"Must be recognized under applicable accounting standards"},
		},

		// CET1 Capital - Regulatory Adjustments (Deductions)
		{
			FieldCode:       "C_01.00_r070",
			FieldName:       "Intangible assets",
			Description:     "Intangible assets including goodwill, net of related tax liability",
			IsDeduction:     true,
			ValidationRules: []string{"Report as positive number", "Deducted from CET1"},
		},
		{
			FieldCode:       "C_01.00_r080",
			FieldName:       "Deferred tax assets",
			Description:     "Deferred tax assets that rely on future profitability",
			IsDeduction:     true,
			ValidationRules: []string{"Report as positive number", "Deducted from CET1"},
		},
		{
			FieldCode:       "C_01.00_r090",
			FieldName:       "Negative amounts from expected loss",
			Description:     "Negative amounts resulting from expected loss calculations",
			IsDeduction:     true,
			ValidationRules: []string{"Report as positive number", "Deducted from CET1"},
		},
		{
			FieldCode:       "C_01.00_r100",
			FieldName:       "Holdings of own CET1 instruments",
			Description:     "Direct, indirect, and synthetic holdings of own CET1 instruments",
			IsDeduction:     true,
			ValidationRules: []string{"Report as positive number", "Deducted from CET1"},
		},
		{
			FieldCode:   "C_01.00_r110",
			FieldName:   "Total regulatory adjustments to CET1",
			Description: "Sum of all regulatory adjustments (deductions) from CET1",
			IsDeduction: true,
			Calculation: "Sum of r070 to r100",
		},
		{
			FieldCode:       "C_01.00_r120",
			FieldName:       "Common Equity Tier 1 (CET1) capital",
			Description:     "Total CET1 capital after regulatory adjustments",
			Calculation:     "(r010 + r020 + r030 + r040) - r110",
			ValidationRules: []string{"Must be positive"},
		},

		// Additional Tier 1 Capital
		{
			FieldCode:       "C_01.00_r130",
			FieldName:       "AT1 capital instruments",
			Description:     "AT1 capital instruments and related share premium accounts",
			ValidationRules: []string{"Must meet AT1 criteria", "Must be subordinated and perpetual"},
		},
		{
			FieldCode:   "C_01.00_r150",
			FieldName:   "Total regulatory adjustments to AT1",
			Description: "Total deductions from AT1 capital",
			IsDeduction: true,
		},
		{
			FieldCode:   "C_01.00_r160",
			FieldName:   "Additional Tier 1 (AT1) capital",
			Description: "Total AT1 capital after regulatory adjustments",
			Calculation: "r130 - r150",
		},
		{
			FieldCode:       "C_01.00_r170",
			FieldName:       "Tier 1 capital (T1 = CET1 + AT1)",
			Description:     "Total Tier 1 capital",
			Calculation:     "r120 + r160",
			ValidationRules: []string{"Must be >= CET1 capital"},
		},

		// Tier 2 Capital
		{
			FieldCode:       "C_01.00_r180",
			FieldName:       "Tier 2 capital instruments",
			Description:     "Tier 2 capital instruments and subordinated loans",
			ValidationRules: []string{"Minimum 5-year maturity required"},
		},
		{
			FieldCode:       "C_01.00_r200",
			FieldName:       "Credit risk adjustments",
			Description:     "General credit risk adjustments (IRB approach)",
			ValidationRules: []string{"Limited to 1.25% of risk-weighted exposures"},
		},
		{
			FieldCode:   "C_01.00_r210",
			FieldName:   "Total regulatory adjustments to T2",
			Description: "Total deductions from Tier 2 capital",
			IsDeduction: true,
		},
		{
			FieldCode:   "C_01.00_r220",
			FieldName:   "Tier 2 (T2) capital",
			Description: "Total Tier 2 capital after regulatory adjustments",
			Calculation: "(r180 + r200) - r210",
		},
		{
			FieldCode:       "C_01.00_r230",
			FieldName:       "Total capital (TC = T1 + T2)",
			Description:     "Total own funds",
			Calculation:     "r170 + r220",
			ValidationRules: []string{"Must be >= Tier 1 capital"},
		},
	},
}
