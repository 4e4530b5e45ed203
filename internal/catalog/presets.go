package catalog

func film(id, name, family string, microns, density, price float64) Preset {
	return Preset{
		ID:               MaterialID(id),
		Name:             name,
		Family:           family,
		Kind:             KindFilm,
		ThicknessMicrons: microns,
		DensityGPerCm3:   density,
		PricePerKg:       price,
	}
}

func paper(id, name, family string, grammage, price float64) Preset {
	return Preset{
		ID:             MaterialID(id),
		Name:           name,
		Family:         family,
		Kind:           KindPaper,
		GrammageGPerM2: grammage,
		PricePerKg:     price,
	}
}

// DefaultPresets are the stock films and papers, priced in CNY per kg.
func DefaultPresets() []Preset {
	return []Preset{
		film("pet-12", "PET 12μm", "PET", 12, 1.4, 8),
		film("pet-15", "PET 15μm", "PET", 15, 1.4, 8.2),
		film("vmpet-12", "VMPET 12μm", "VMPET", 12, 1.4, 9),
		film("vmpet-15", "VMPET 15μm", "VMPET", 15, 1.4, 9.2),

		film("bopp-20", "BOPP 20μm", "BOPP", 20, 0.91, 8.5),
		film("bopp-25", "BOPP 25μm", "BOPP", 25, 0.91, 8.8),
		film("bopp-30", "BOPP 30μm", "BOPP", 30, 0.91, 9.1),

		film("cpp-25", "CPP 25μm", "CPP", 25, 0.91, 9),
		film("cpp-30", "CPP 30μm", "CPP", 30, 0.91, 9.2),
		film("cpp-40", "CPP 40μm", "CPP", 40, 0.91, 9.5),
		film("vmcpp-25", "VMCPP 25μm", "VMCPP", 25, 0.91, 11),
		film("vmcpp-30", "VMCPP 30μm", "VMCPP", 30, 0.91, 11.2),

		film("pe-30", "PE 30μm", "PE", 30, 0.92, 9.2),
		film("pe-40", "PE 40μm", "PE", 40, 0.92, 9.5),
		film("pe-50", "PE 50μm", "PE", 50, 0.92, 9.8),
		film("pe-90", "PE 90μm", "PE", 90, 0.92, 10.16),

		film("bopa-15", "BOPA 15μm", "BOPA", 15, 1.16, 17),
		film("bopa-20", "BOPA 20μm", "BOPA", 20, 1.16, 17.5),

		paper("kraft-60", "Kraft paper 60g", "KRAFT", 60, 7),
		paper("kraft-80", "Kraft paper 80g", "KRAFT", 80, 7.2),
		paper("white-kraft-60", "White kraft paper 60g", "WHITE_KRAFT", 60, 8),
		paper("white-kraft-80", "White kraft paper 80g", "WHITE_KRAFT", 80, 8.2),
		paper("tissue-19", "Tissue paper 19g", "TISSUE", 19, 11),
	}
}

// Default returns the catalog of DefaultPresets.
func Default() Catalog {
	c, err := New(DefaultPresets()...)
	if err != nil {
		panic(err)
	}
	return c
}
