package catalog

import "github.com/shopspring/decimal"

const currencyUSD = "USD"

func usd(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

var (
	payAll      = []string{"card", "paypal", "crypto"}
	payCardPal  = []string{"card", "paypal"}
	payCardOnly = []string{"card"}

	badgeTop      = []string{BadgeVerified, BadgeTopSeller}
	badgeVerified = []string{BadgeVerified}
)

// Default returns the storefront's built-in demo catalog.
func Default() *Catalog {
	c, err := New(demoProducts(), demoOffers(), demoSellers(), demoCategories())
	if err != nil {
		panic(err)
	}
	return c
}

func demoSellers() []Seller {
	return []Seller{
		{ID: "s1", Name: "GameVault Pro", Rating: 4.9, Verified: true, SalesCount: 45230, ResponseTimeMinutes: 5},
		{ID: "s2", Name: "KeyMaster", Rating: 4.7, Verified: true, SalesCount: 32100, ResponseTimeMinutes: 10},
		{ID: "s3", Name: "DigitalDeals", Rating: 4.5, Verified: false, SalesCount: 8450, ResponseTimeMinutes: 30},
		{ID: "s4", Name: "InstantKeys", Rating: 4.8, Verified: true, SalesCount: 67800, ResponseTimeMinutes: 2},
		{ID: "s5", Name: "GameForge", Rating: 4.6, Verified: true, SalesCount: 21500, ResponseTimeMinutes: 15},
	}
}

func demoProducts() []Product {
	const img = "https://images.unsplash.com/"
	return []Product{
		{
			ID: "p1", Title: "Elden Ring", Platform: PlatformPC,
			ThumbnailURL: img + "photo-1538481199705-c710c4e965fc?w=400&h=600&fit=crop",
			Description:  "Rise, Tarnished, and be guided by grace to brandish the power of the Elden Ring.",
			Categories:   []string{"RPG", "Action", "Open World"},
			OfferIDs:     []string{"o1", "o2", "o3"},
			LowestPrice:  usd("42.99"), Currency: currencyUSD,
		},
		{
			ID: "p2", Title: "Cyberpunk 2077", Platform: PlatformPC,
			ThumbnailURL: img + "photo-1542751371-adc38448a05e?w=400&h=600&fit=crop",
			Description:  "An open-world action-adventure set in the megalopolis of Night City.",
			Categories:   []string{"RPG", "Action", "Sci-Fi"},
			OfferIDs:     []string{"o4", "o5"},
			LowestPrice:  usd("29.99"), Currency: currencyUSD,
		},
		{
			ID: "p3", Title: "God of War Ragnarök", Platform: PlatformPS,
			ThumbnailURL: img + "photo-1493711662062-fa541f7f897a?w=400&h=600&fit=crop",
			Description:  "Embark on an epic journey as Kratos and Atreus.",
			Categories:   []string{"Action", "Adventure"},
			OfferIDs:     []string{"o6", "o7"},
			LowestPrice:  usd("54.99"), Currency: currencyUSD,
		},
		{
			ID: "p4", Title: "Forza Horizon 5", Platform: PlatformXbox,
			ThumbnailURL: img + "photo-1511512578047-dfb367046420?w=400&h=600&fit=crop",
			Description:  "Explore the vibrant open world landscapes of Mexico.",
			Categories:   []string{"Racing", "Open World"},
			OfferIDs:     []string{"o8"},
			LowestPrice:  usd("39.99"), Currency: currencyUSD,
		},
		{
			ID: "p5", Title: "The Legend of Zelda: TOTK", Platform: PlatformNintendo,
			ThumbnailURL: img + "photo-1550745165-9bc0b252726f?w=400&h=600&fit=crop",
			Description:  "An epic adventure across the land and skies of Hyrule.",
			Categories:   []string{"Adventure", "Action", "Open World"},
			OfferIDs:     []string{"o9", "o10"},
			LowestPrice:  usd("59.99"), Currency: currencyUSD,
		},
		{
			ID: "p6", Title: "FIFA 24", Platform: PlatformPC,
			ThumbnailURL: img + "photo-1493711662062-fa541f7f897a?w=400&h=600&fit=crop",
			Description:  "The worlds game with HyperMotion technology.",
			Categories:   []string{"Sports", "Simulation"},
			OfferIDs:     []string{"o11", "o12"},
			LowestPrice:  usd("34.99"), Currency: currencyUSD,
		},
		{
			ID: "p7", Title: "Hogwarts Legacy", Platform: PlatformPC,
			ThumbnailURL: img + "photo-1538481199705-c710c4e965fc?w=400&h=600&fit=crop",
			Description:  "Experience Hogwarts in the 1800s.",
			Categories:   []string{"RPG", "Adventure", "Open World"},
			OfferIDs:     []string{"o13", "o14"},
			LowestPrice:  usd("44.99"), Currency: currencyUSD,
		},
		{
			ID: "p8", Title: "Steam Wallet $50", Platform: PlatformPC,
			ThumbnailURL: img + "photo-1511512578047-dfb367046420?w=400&h=600&fit=crop",
			Description:  "Add $50 to your Steam Wallet.",
			Categories:   []string{"Gift Card", "Steam"},
			OfferIDs:     []string{"o15"},
			LowestPrice:  usd("47.50"), Currency: currencyUSD,
		},
	}
}

func demoOffers() []Offer {
	offer := func(id, product, seller, price string, dt DeliveryType, region string, eta int, pay []string, stock int, rating float64, badges []string) Offer {
		return Offer{
			ID: id, ProductID: product, SellerID: seller,
			Price: usd(price), Currency: currencyUSD,
			DeliveryType: dt, RegionLock: region, ETAMinutes: eta,
			PaymentMethods: pay, Stock: stock, Rating: rating, SellerBadges: badges,
		}
	}
	return []Offer{
		offer("o1", "p1", "s1", "42.99", DeliveryInstant, "", 0, payAll, 50, 4.9, badgeTop),
		offer("o2", "p1", "s2", "44.99", DeliveryInstant, "EU", 0, payCardPal, 25, 4.7, badgeVerified),
		offer("o3", "p1", "s3", "41.50", DeliveryManual, "", 30, payCardOnly, 10, 4.5, nil),
		offer("o4", "p2", "s1", "29.99", DeliveryInstant, "", 0, payAll, 100, 4.9, badgeTop),
		offer("o5", "p2", "s4", "31.99", DeliveryInstant, "US", 0, payCardPal, 45, 4.8, badgeVerified),
		offer("o6", "p3", "s2", "54.99", DeliveryInstant, "", 0, payCardPal, 30, 4.7, badgeVerified),
		offer("o7", "p3", "s5", "56.99", DeliveryEmail, "EU", 60, payCardOnly, 15, 4.6, badgeVerified),
		offer("o8", "p4", "s4", "39.99", DeliveryInstant, "", 0, payAll, 80, 4.8, badgeTop),
		offer("o9", "p5", "s1", "59.99", DeliveryInstant, "", 0, payCardPal, 40, 4.9, badgeTop),
		offer("o10", "p5", "s3", "57.99", DeliveryManual, "", 45, payCardOnly, 5, 4.5, nil),
		offer("o11", "p6", "s2", "34.99", DeliveryInstant, "", 0, payCardPal, 60, 4.7, badgeVerified),
		offer("o12", "p6", "s5", "36.99", DeliveryInstant, "EU", 0, payCardOnly, 35, 4.6, badgeVerified),
		offer("o13", "p7", "s1", "44.99", DeliveryInstant, "", 0, payAll, 70, 4.9, badgeTop),
		offer("o14", "p7", "s4", "46.99", DeliveryInstant, "", 0, payCardPal, 55, 4.8, badgeVerified),
		offer("o15", "p8", "s4", "47.50", DeliveryInstant, "", 0, payCardPal, 999, 4.8, badgeVerified),
	}
}

func demoCategories() []Category {
	return []Category{
		{ID: "games", Name: "Games"},
		{ID: "gift-cards", Name: "Gift Cards"},
		{ID: "top-ups", Name: "Top-Ups"},
		{ID: "software", Name: "Software"},
		{ID: "subscriptions", Name: "Subscriptions"},
	}
}
