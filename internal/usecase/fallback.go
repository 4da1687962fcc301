package usecase

import (
	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// fallbackProducts возвращает встроенный каталог, который отдаётся, когда ни один источник недоступен.
func fallbackProducts() []domain.Product {
	return []domain.Product{
		{
			ID:       "1",
			Name:     "La Vie Est Belle Eau de Parfum",
			Brand:    "Lancôme",
			Price:    decimal.NewFromInt(345),
			Category: "Parfum",
			Image:    "assets/eau-de-parfum-lancome-la-vie-est-belle.webp",
			IsNew:    true,
		},
		{
			ID:       "2",
			Name:     "Rouge Dior Lipstick",
			Brand:    "Dior",
			Price:    decimal.NewFromInt(145),
			Category: "Maquillage",
			Image:    "assets/rouge dior.jpg",
			IsNew:    true,
		},
		{
			ID:       "3",
			Name:     "Advanced Night Repair",
			Brand:    "Estée Lauder",
			Price:    decimal.NewFromInt(420),
			Category: "Soin",
			Image:    "assets/Advanced Night Repair.jpg",
		},
		{
			ID:       "4",
			Name:     "Black Opium Eau de Parfum",
			Brand:    "Yves Saint Laurent",
			Price:    decimal.NewFromInt(380),
			Category: "Parfum",
			Image:    "assets/Black Opium Eau de Parfum.jpg",
			IsNew:    true,
		},
		{
			ID:       "5",
			Name:     "Terracotta Poudre Bronzante",
			Brand:    "Guerlain",
			Price:    decimal.NewFromInt(190),
			Category: "Maquillage",
			Image:    "assets/Terracotta Poudre Bronzante.jpg",
		},
		{
			ID:       "6",
			Name:     "Coco Mademoiselle",
			Brand:    "Chanel",
			Price:    decimal.NewFromInt(490),
			Category: "Parfum",
			Image:    "assets/Coco Mademoiselle.webp",
		},
		{
			ID:       "7",
			Name:     "Double Wear Foundation",
			Brand:    "Estée Lauder",
			Price:    decimal.NewFromInt(210),
			Category: "Maquillage",
			Image:    "assets/Double Wear Foundation.jpg",
			IsNew:    true,
		},
		{
			ID:       "8",
			Name:     "Sauvage Eau de Toilette",
			Brand:    "Dior",
			Price:    decimal.NewFromInt(360),
			Category: "Parfum",
			Image:    "assets/Sauvage Eau de Toilette.jpg",
		},
	}
}
