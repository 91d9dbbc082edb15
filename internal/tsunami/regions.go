package tsunami

// coastalRegions names the coasts a water impact could reach, by ocean band
// and then by known high-risk zone.
func coastalRegions(lat, lon float64, limit int) []string {
	var out []string
	north := lat > 0
	switch {
	case lon >= -180 && lon <= -30:
		if north {
			out = append(out, "North American Coast", "European Coast")
		} else {
			out = append(out, "South American Coast", "African Coast")
		}
	case lon > -30 && lon <= 60:
		if north {
			out = append(out, "European Coast", "Middle Eastern Coast")
		} else {
			out = append(out, "African Coast", "Indian Ocean Islands")
		}
	case lon > 60 && lon <= 180:
		if north {
			out = append(out, "Asian Coast", "Pacific Islands")
		} else {
			out = append(out, "Australian Coast", "Pacific Islands")
		}
	}

	switch {
	case lat >= 20 && lat <= 50 && lon >= 120 && lon <= 150:
		out = append(out, "Japan Coast (High Risk)")
	case lat >= -10 && lat <= 10 && lon >= 90 && lon <= 120:
		out = append(out, "Indonesia/Philippines (High Risk)")
	case lat >= 30 && lat <= 45 && lon >= -130 && lon <= -115:
		out = append(out, "US West Coast (High Risk)")
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
