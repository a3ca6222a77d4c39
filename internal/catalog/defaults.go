package catalog

import "github.com/Veraticus/kakeibo/internal/model"

// DefaultRules returns the built-in keyword rules. Keywords within one rule must
// co-occur in real statements, since confidence scales with the fraction that hit.
// Alternative brands get a rule each so that a single hit clears the engine floor.
func DefaultRules() []model.ClassificationRule {
	return []model.ClassificationRule{
		// Cafes and meetings
		{
			Name:           "Cafe (JP)",
			Keywords:       []string{"スターバックス", "コーヒー", "カフェ"},
			Category:       model.CategoryMeetingExpense,
			IsBusiness:     true,
			BaseConfidence: 0.95,
			Policy:         model.PolicyCoffeeWhileWorking,
		},
		{
			Name:           "Starbucks",
			Keywords:       []string{"starbucks"},
			Category:       model.CategoryMeetingExpense,
			IsBusiness:     true,
			BaseConfidence: 0.8,
			Policy:         model.PolicyCoffeeWhileWorking,
		},
		{
			Name:           "Coffee Shop",
			Keywords:       []string{"coffee"},
			Category:       model.CategoryMeetingExpense,
			IsBusiness:     true,
			BaseConfidence: 0.75,
			Policy:         model.PolicyCoffeeWhileWorking,
		},
		{
			Name:           "Cafe",
			Keywords:       []string{"cafe"},
			Category:       model.CategoryMeetingExpense,
			IsBusiness:     true,
			BaseConfidence: 0.75,
			Policy:         model.PolicyCoffeeWhileWorking,
		},
		{
			Name:           "Doutor",
			Keywords:       []string{"ドトール"},
			Category:       model.CategoryMeetingExpense,
			IsBusiness:     true,
			BaseConfidence: 0.9,
			Policy:         model.PolicyCoffeeWhileWorking,
		},
		{
			Name:           "Tully's",
			Keywords:       []string{"タリーズ"},
			Category:       model.CategoryMeetingExpense,
			IsBusiness:     true,
			BaseConfidence: 0.9,
			Policy:         model.PolicyCoffeeWhileWorking,
		},
		{
			Name:           "Komeda",
			Keywords:       []string{"コメダ"},
			Category:       model.CategoryMeetingExpense,
			IsBusiness:     true,
			BaseConfidence: 0.9,
			Policy:         model.PolicyCoffeeWhileWorking,
		},
		{
			Name:           "Meeting",
			Keywords:       []string{"打ち合わせ"},
			Category:       model.CategoryMeetingExpense,
			IsBusiness:     true,
			BaseConfidence: 0.85,
		},
		{
			Name:           "Client Entertainment",
			Keywords:       []string{"接待"},
			Category:       model.CategoryEntertainment,
			IsBusiness:     true,
			BaseConfidence: 0.9,
		},
		{
			Name:           "Summer Gift",
			Keywords:       []string{"お中元"},
			Category:       model.CategoryEntertainment,
			IsBusiness:     true,
			BaseConfidence: 0.85,
		},
		{
			Name:           "Year-end Gift",
			Keywords:       []string{"お歳暮"},
			Category:       model.CategoryEntertainment,
			IsBusiness:     true,
			BaseConfidence: 0.85,
		},

		// Travel
		{
			Name:           "Taxi (JP)",
			Keywords:       []string{"タクシー"},
			Category:       model.CategoryTravel,
			IsBusiness:     true,
			BaseConfidence: 0.8,
			Policy:         model.PolicyTaxiExpense,
		},
		{
			Name:           "Taxi",
			Keywords:       []string{"taxi"},
			Category:       model.CategoryTravel,
			IsBusiness:     true,
			BaseConfidence: 0.8,
			Policy:         model.PolicyTaxiExpense,
		},
		{
			Name:           "Rail",
			Keywords:       []string{"新幹線"},
			Category:       model.CategoryTravel,
			IsBusiness:     true,
			BaseConfidence: 0.85,
		},
		{
			Name:           "Suica",
			Keywords:       []string{"suica"},
			Category:       model.CategoryTravel,
			IsBusiness:     true,
			BaseConfidence: 0.75,
		},
		{
			Name:           "PASMO",
			Keywords:       []string{"pasmo"},
			Category:       model.CategoryTravel,
			IsBusiness:     true,
			BaseConfidence: 0.75,
		},
		{
			Name:           "Air Travel",
			Keywords:       []string{"航空券"},
			Category:       model.CategoryTravel,
			IsBusiness:     true,
			BaseConfidence: 0.85,
		},
		{
			Name:           "Hotel",
			Keywords:       []string{"ホテル"},
			Category:       model.CategoryTravel,
			IsBusiness:     true,
			BaseConfidence: 0.8,
		},
		{
			Name:           "Lodging",
			Keywords:       []string{"宿泊"},
			Category:       model.CategoryTravel,
			IsBusiness:     true,
			BaseConfidence: 0.8,
		},

		// Communication
		{
			Name:           "Docomo (JP)",
			Keywords:       []string{"ドコモ"},
			Category:       model.CategoryCommunication,
			IsBusiness:     true,
			BaseConfidence: 0.9,
			Policy:         model.PolicyPhoneBusinessRatio,
		},
		{
			Name:           "Docomo",
			Keywords:       []string{"docomo"},
			Category:       model.CategoryCommunication,
			IsBusiness:     true,
			BaseConfidence: 0.9,
			Policy:         model.PolicyPhoneBusinessRatio,
		},
		{
			Name:           "SoftBank (JP)",
			Keywords:       []string{"ソフトバンク"},
			Category:       model.CategoryCommunication,
			IsBusiness:     true,
			BaseConfidence: 0.9,
			Policy:         model.PolicyPhoneBusinessRatio,
		},
		{
			Name:           "SoftBank",
			Keywords:       []string{"softbank"},
			Category:       model.CategoryCommunication,
			IsBusiness:     true,
			BaseConfidence: 0.9,
			Policy:         model.PolicyPhoneBusinessRatio,
		},
		{
			Name:           "Phone Bill",
			Keywords:       []string{"携帯"},
			Category:       model.CategoryCommunication,
			IsBusiness:     true,
			BaseConfidence: 0.8,
			Policy:         model.PolicyPhoneBusinessRatio,
		},
		{
			Name:           "Internet",
			Keywords:       []string{"インターネット"},
			Category:       model.CategoryCommunication,
			IsBusiness:     true,
			BaseConfidence: 0.85,
		},
		{
			Name:           "Provider",
			Keywords:       []string{"プロバイダ"},
			Category:       model.CategoryCommunication,
			IsBusiness:     true,
			BaseConfidence: 0.85,
		},

		// Software and tools
		{
			Name:           "Cloud Hosting",
			Keywords:       []string{"aws"},
			Category:       model.CategorySoftware,
			IsBusiness:     true,
			BaseConfidence: 0.85,
		},
		{
			Name:           "Code Hosting",
			Keywords:       []string{"github"},
			Category:       model.CategorySoftware,
			IsBusiness:     true,
			BaseConfidence: 0.9,
		},
		{
			Name:           "Creative Suite",
			Keywords:       []string{"adobe"},
			Category:       model.CategorySoftware,
			IsBusiness:     true,
			BaseConfidence: 0.85,
		},

		// Supplies and books
		{
			Name:           "Stationery (JP)",
			Keywords:       []string{"文房具"},
			Category:       model.CategorySupplies,
			IsBusiness:     true,
			BaseConfidence: 0.8,
		},
		{
			Name:           "Stationery",
			Keywords:       []string{"stationery"},
			Category:       model.CategorySupplies,
			IsBusiness:     true,
			BaseConfidence: 0.8,
		},
		{
			Name:           "Office Supplies",
			Keywords:       []string{"office", "supplies"},
			Category:       model.CategorySupplies,
			IsBusiness:     true,
			BaseConfidence: 0.8,
		},
		{
			Name:           "Books",
			Keywords:       []string{"書籍"},
			Category:       model.CategoryBooks,
			IsBusiness:     true,
			BaseConfidence: 0.85,
			Policy:         model.PolicyBooks,
		},
		{
			Name:           "Kinokuniya",
			Keywords:       []string{"紀伊國屋"},
			Category:       model.CategoryBooks,
			IsBusiness:     true,
			BaseConfidence: 0.85,
			Policy:         model.PolicyBooks,
		},
		{
			Name:           "Junkudo",
			Keywords:       []string{"ジュンク堂"},
			Category:       model.CategoryBooks,
			IsBusiness:     true,
			BaseConfidence: 0.85,
			Policy:         model.PolicyBooks,
		},

		// Premises
		{
			Name:           "Electricity",
			Keywords:       []string{"電気料金"},
			Category:       model.CategoryUtilities,
			IsBusiness:     true,
			BaseConfidence: 0.85,
		},
		{
			Name:           "Gas",
			Keywords:       []string{"ガス料金"},
			Category:       model.CategoryUtilities,
			IsBusiness:     true,
			BaseConfidence: 0.9,
		},
		{
			Name:           "Water",
			Keywords:       []string{"水道料金"},
			Category:       model.CategoryUtilities,
			IsBusiness:     true,
			BaseConfidence: 0.9,
		},
		{
			Name:           "Rent",
			Keywords:       []string{"家賃"},
			Category:       model.CategoryRent,
			IsBusiness:     true,
			BaseConfidence: 0.85,
		},

		// Other business costs
		{
			Name:           "Advertising",
			Keywords:       []string{"広告"},
			Category:       model.CategoryAdvertising,
			IsBusiness:     true,
			BaseConfidence: 0.85,
		},
		{
			Name:           "Outsourcing",
			Keywords:       []string{"外注"},
			Category:       model.CategoryOutsourcing,
			IsBusiness:     true,
			BaseConfidence: 0.85,
		},
		{
			Name:           "Transfer Fee",
			Keywords:       []string{"振込手数料"},
			Category:       model.CategoryFees,
			IsBusiness:     true,
			BaseConfidence: 0.95,
		},
		{
			Name:           "Fees",
			Keywords:       []string{"手数料"},
			Category:       model.CategoryFees,
			IsBusiness:     true,
			BaseConfidence: 0.75,
		},
		{
			Name:           "Insurance",
			Keywords:       []string{"保険料"},
			Category:       model.CategoryInsurance,
			IsBusiness:     true,
			BaseConfidence: 0.75,
		},
		{
			Name:           "Revenue Stamp",
			Keywords:       []string{"収入印紙"},
			Category:       model.CategoryTaxes,
			IsBusiness:     true,
			BaseConfidence: 0.9,
		},
		{
			Name:           "Seminar",
			Keywords:       []string{"セミナー"},
			Category:       model.CategoryTraining,
			IsBusiness:     true,
			BaseConfidence: 0.8,
		},

		// Personal
		{
			Name:           "Resident Tax",
			Keywords:       []string{"住民税"},
			Category:       model.CategoryPersonal,
			IsBusiness:     false,
			BaseConfidence: 0.9,
		},
		{
			Name:           "Supermarket",
			Keywords:       []string{"スーパー"},
			Category:       model.CategoryPersonalFood,
			IsBusiness:     false,
			BaseConfidence: 0.7,
		},
		{
			Name:           "Grocery",
			Keywords:       []string{"grocery"},
			Category:       model.CategoryPersonalFood,
			IsBusiness:     false,
			BaseConfidence: 0.7,
		},
		{
			Name:           "Netflix",
			Keywords:       []string{"netflix"},
			Category:       model.CategoryPersonalEntertainment,
			IsBusiness:     false,
			BaseConfidence: 0.85,
		},
		{
			Name:           "Spotify",
			Keywords:       []string{"spotify"},
			Category:       model.CategoryPersonalEntertainment,
			IsBusiness:     false,
			BaseConfidence: 0.85,
		},
		{
			Name:           "Cinema",
			Keywords:       []string{"映画"},
			Category:       model.CategoryPersonalEntertainment,
			IsBusiness:     false,
			BaseConfidence: 0.75,
		},
		{
			Name:           "Drugstore",
			Keywords:       []string{"ドラッグストア"},
			Category:       model.CategoryPersonalLiving,
			IsBusiness:     false,
			BaseConfidence: 0.7,
		},
		{
			Name:           "Hair Salon",
			Keywords:       []string{"美容院"},
			Category:       model.CategoryPersonalLiving,
			IsBusiness:     false,
			BaseConfidence: 0.8,
		},

		// Revenue
		{
			Name:           "Sales Deposit",
			Keywords:       []string{"売上"},
			Category:       model.CategorySales,
			IsBusiness:     true,
			BaseConfidence: 0.85,
		},
		{
			Name:           "Invoice Payment",
			Keywords:       []string{"invoice"},
			Category:       model.CategorySales,
			IsBusiness:     true,
			BaseConfidence: 0.8,
		},
		{
			Name:           "Interest",
			Keywords:       []string{"利息"},
			Category:       model.CategoryMiscIncome,
			IsBusiness:     true,
			BaseConfidence: 0.8,
		},
	}
}

// Shared lexicons used by the contextual and fallback strategies. All entries are
// already normalized.
var (
	// BusinessIntentKeywords signal that spend was made for the business.
	BusinessIntentKeywords = []string{
		"会議", "打ち合わせ", "出張", "取引先", "クライアント", "業務", "経費", "仕事",
		"meeting", "client", "business", "conference", "office", "work",
	}

	// FoodKeywords identify meals and drinks.
	FoodKeywords = []string{
		"ランチ", "定食", "弁当", "レストラン", "食堂", "カフェ", "コーヒー", "ラーメン", "寿司", "居酒屋",
		"lunch", "restaurant", "cafe", "coffee", "diner", "burger", "sushi", "ramen",
	}

	// EquipmentKeywords identify durable equipment purchases.
	EquipmentKeywords = []string{
		"パソコン", "ノートpc", "モニター", "ディスプレイ", "プリンター", "カメラ", "レンズ", "デスク", "チェア", "備品", "機器",
		"equipment", "laptop", "computer", "monitor", "printer", "camera", "desk", "chair",
	}
)
