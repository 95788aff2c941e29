package strategy

// Param documents one tunable of a policy.
type Param struct {
	Name        string `json:"name"`
	Default     any    `json:"default,omitempty"`
	Description string `json:"description,omitempty"`
}

// Info describes a policy for listings.
type Info struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Params      []Param `json:"params"`
}

var bandParams = []Param{
	{Name: "soc_min", Description: "lower SoC target as a fraction; defaults to the battery minimum"},
	{Name: "soc_max", Description: "upper SoC target as a fraction; defaults to the battery maximum"},
}

// Catalog lists every policy Build accepts.
func Catalog() []Info {
	return []Info{
		{
			Name:        NamePeakShaving,
			Description: "Discharge while net load exceeds the threshold; recharge below 70% of it.",
			Params: append([]Param{
				{Name: "threshold_kw", Default: DefaultPeakThresholdKW, Description: "net load threshold in kW"},
			}, bandParams...),
		},
		{
			Name:        NameArbitrage,
			Description: "Charge at full power at or below the buy price, discharge at or above the sell price.",
			Params: append([]Param{
				{Name: "buy_threshold", Default: DefaultBuyBelow, Description: "$/kWh at or below which to charge"},
				{Name: "sell_threshold", Default: DefaultSellAbove, Description: "$/kWh at or above which to discharge"},
			}, bandParams...),
		},
		{
			Name:        NameFrequencyRegulation,
			Description: "Hold SoC near the target at half rated power outside a deadband.",
			Params: []Param{
				{Name: "target_soc", Default: DefaultRegulationTarget, Description: "SoC fraction to hold"},
				{Name: "deadband", Default: DefaultRegulationDeadband, Description: "tolerance around the target"},
			},
		},
		{
			Name:        NameRenewableIntegration,
			Description: "Store surplus solar and wind; cover half the shortfall when renewables meet under 80% of demand.",
			Params:      bandParams,
		},
		{
			Name:        NameTOUArbitrage,
			Description: "Charge below 70% of the mean price, discharge above 130% of it.",
			Params: append([]Param{
				{Name: "charge_ratio", Default: DefaultTOUChargeRatio, Description: "fraction of mean price to charge under"},
				{Name: "discharge_ratio", Default: DefaultTOUDischargeRatio, Description: "multiple of mean price to discharge over"},
			}, bandParams...),
		},
		{
			Name:        NameSolarSelfConsumption,
			Description: "Store surplus solar and serve load from the battery when solar falls short.",
			Params:      bandParams,
		},
		{
			Name:        NameHybrid,
			Description: "Sum several policies; discharge savings split evenly across them.",
			Params: []Param{
				{Name: "policies", Default: "tou_arbitrage,peak_shaving", Description: "member policies"},
				{Name: "threshold_kw", Default: DefaultPeakThresholdKW, Description: "peak shaving threshold"},
			},
		},
		{
			Name:        NameSchedule,
			Description: "Charge and discharge in fixed daily HH:MM windows.",
			Params: append([]Param{
				{Name: "charge_start", Default: "10:00"},
				{Name: "charge_end", Description: "defaults to discharge_start"},
				{Name: "discharge_start", Default: "17:00"},
				{Name: "discharge_end", Default: "21:00"},
				{Name: "charge_power_kw", Description: "defaults to rated power"},
				{Name: "discharge_power_kw", Description: "defaults to rated power"},
			}, bandParams...),
		},
	}
}
