package domain

import (
	"fmt"
	"strings"
)

type CropNorms struct {
	SeedingRate    string `json:"seeding_rate" yaml:"seeding_rate"`
	PlantDensity   string `json:"plant_density" yaml:"plant_density"`
	DepthCm        string `json:"depth_cm" yaml:"depth_cm"`
	RowSpacingCm   string `json:"row_spacing_cm" yaml:"row_spacing_cm"`
	TSWGrams       string `json:"tsw_grams" yaml:"tsw_grams"`
	YieldPotential string `json:"yield_potential" yaml:"yield_potential"`
}

type CropNorm struct {
	ID          string    `json:"id" yaml:"id"`
	CropName    string    `json:"crop_name" yaml:"crop_name"`
	Keywords    []string  `json:"keywords" yaml:"keywords"`
	SourceRef   string    `json:"source_ref" yaml:"source_ref"`
	SourceLink  string    `json:"source_link" yaml:"source_link"`
	Description string    `json:"description" yaml:"description"`
	Norms       CropNorms `json:"norms" yaml:"norms"`
}

type FertilizerNorm struct {
	ID                string   `json:"id" yaml:"id"`
	Name              string   `json:"name" yaml:"name"`
	NutrientType      string   `json:"nutrient_type" yaml:"nutrient_type"`
	ActiveIngredient  string   `json:"active_ingredient" yaml:"active_ingredient"`
	ApplicationRate   string   `json:"application_rate" yaml:"application_rate"`
	SuitableCrops     []string `json:"suitable_crops" yaml:"suitable_crops"`
	RequiredSoilTests []string `json:"required_soil_tests" yaml:"required_soil_tests"`
	ApplicationTiming string   `json:"application_timing" yaml:"application_timing"`
	Safety            string   `json:"safety" yaml:"safety"`
}

// CatalogMatch holds exactly one of Crop or Fertilizer.
type CatalogMatch struct {
	Crop       *CropNorm
	Fertilizer *FertilizerNorm
}

// Render formats the matched record as a context block.
func (m CatalogMatch) Render() string {
	var b strings.Builder
	switch {
	case m.Crop != nil:
		c := m.Crop
		b.WriteString("[RAG RETRIEVAL SUCCESS - CROP]\n")
		fmt.Fprintf(&b, "ID: %s\n", c.ID)
		fmt.Fprintf(&b, "CROP: %s\n", c.CropName)
		fmt.Fprintf(&b, "SOURCE: %s (%s)\n", c.SourceRef, c.SourceLink)
		b.WriteString("OFFICIAL AGRONOMIC NORMS (UZBEKISTAN):\n")
		fmt.Fprintf(&b, "- Seeding Rate: %s\n", c.Norms.SeedingRate)
		fmt.Fprintf(&b, "- Target Density: %s\n", c.Norms.PlantDensity)
		fmt.Fprintf(&b, "- Planting Depth: %s\n", c.Norms.DepthCm)
		fmt.Fprintf(&b, "- Row Spacing: %s\n", c.Norms.RowSpacingCm)
		fmt.Fprintf(&b, "- 1000 Seed Weight (TSW): %s\n", c.Norms.TSWGrams)
		fmt.Fprintf(&b, "- Typical Yield Potential: %s\n", c.Norms.YieldPotential)
		fmt.Fprintf(&b, "DESCRIPTION: %s", c.Description)
	case m.Fertilizer != nil:
		f := m.Fertilizer
		b.WriteString("[RAG RETRIEVAL SUCCESS - FERTILIZER]\n")
		fmt.Fprintf(&b, "ID: %s\n", f.ID)
		fmt.Fprintf(&b, "NAME: %s\n", f.Name)
		fmt.Fprintf(&b, "TYPE: %s\n", f.NutrientType)
		fmt.Fprintf(&b, "ACTIVE INGREDIENT: %s\n", f.ActiveIngredient)
		fmt.Fprintf(&b, "TYPICAL RATE: %s\n", f.ApplicationRate)
		fmt.Fprintf(&b, "SUITABLE CROPS: %s\n", strings.Join(f.SuitableCrops, ", "))
		fmt.Fprintf(&b, "REQUIRED SOIL TESTS: %s\n", strings.Join(f.RequiredSoilTests, ", "))
		fmt.Fprintf(&b, "TIMING: %s\n", f.ApplicationTiming)
		fmt.Fprintf(&b, "SAFETY: %s", f.Safety)
	}
	return b.String()
}
