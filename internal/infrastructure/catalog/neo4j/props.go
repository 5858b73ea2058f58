package neo4j

import (
	"fmt"

	"github.com/kirillkom/agro-knowledge/internal/core/domain"
)

func cropToProps(ord int, c domain.CropNorm) map[string]any {
	return map[string]any{
		"id":              c.ID,
		"ord":             int64(ord),
		"crop_name":       c.CropName,
		"keywords":        c.Keywords,
		"source_ref":      c.SourceRef,
		"source_link":     c.SourceLink,
		"description":     c.Description,
		"seeding_rate":    c.Norms.SeedingRate,
		"plant_density":   c.Norms.PlantDensity,
		"depth_cm":        c.Norms.DepthCm,
		"row_spacing_cm":  c.Norms.RowSpacingCm,
		"tsw_grams":       c.Norms.TSWGrams,
		"yield_potential": c.Norms.YieldPotential,
	}
}

func cropFromProps(p map[string]any) domain.CropNorm {
	return domain.CropNorm{
		ID:          str(p["id"]),
		CropName:    str(p["crop_name"]),
		Keywords:    strs(p["keywords"]),
		SourceRef:   str(p["source_ref"]),
		SourceLink:  str(p["source_link"]),
		Description: str(p["description"]),
		Norms: domain.CropNorms{
			SeedingRate:    str(p["seeding_rate"]),
			PlantDensity:   str(p["plant_density"]),
			DepthCm:        str(p["depth_cm"]),
			RowSpacingCm:   str(p["row_spacing_cm"]),
			TSWGrams:       str(p["tsw_grams"]),
			YieldPotential: str(p["yield_potential"]),
		},
	}
}

func fertilizerToProps(ord int, f domain.FertilizerNorm) map[string]any {
	return map[string]any{
		"id":                  f.ID,
		"ord":                 int64(ord),
		"name":                f.Name,
		"nutrient_type":       f.NutrientType,
		"active_ingredient":   f.ActiveIngredient,
		"application_rate":    f.ApplicationRate,
		"suitable_crops":      f.SuitableCrops,
		"required_soil_tests": f.RequiredSoilTests,
		"application_timing":  f.ApplicationTiming,
		"safety":              f.Safety,
	}
}

func fertilizerFromProps(p map[string]any) domain.FertilizerNorm {
	return domain.FertilizerNorm{
		ID:                str(p["id"]),
		Name:              str(p["name"]),
		NutrientType:      str(p["nutrient_type"]),
		ActiveIngredient:  str(p["active_ingredient"]),
		ApplicationRate:   str(p["application_rate"]),
		SuitableCrops:     strs(p["suitable_crops"]),
		RequiredSoilTests: strs(p["required_soil_tests"]),
		ApplicationTiming: str(p["application_timing"]),
		Safety:            str(p["safety"]),
	}
}

func str(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

// strs accepts both []any (as returned by the driver) and []string.
func strs(v any) []string {
	switch t := v.(type) {
	case []string:
		return append([]string(nil), t...)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := str(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
