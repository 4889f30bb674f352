package openmeteo

var weatherCodeDescriptions = map[int]string{
	0:  "Céu limpo",
	1:  "Principalmente limpo",
	2:  "Parcialmente nublado",
	3:  "Nublado",
	45: "Nevoeiro",
	48: "Nevoeiro com geada",
	51: "Garoa leve",
	53: "Garoa moderada",
	55: "Garoa densa",
	61: "Chuva leve",
	63: "Chuva moderada",
	65: "Chuva forte",
	71: "Neve leve",
	73: "Neve moderada",
	75: "Neve forte",
	95: "Tempestade",
	96: "Tempestade com granizo leve",
	99: "Tempestade com granizo forte",
}

// DescribeWeatherCode returns the Portuguese description of a WMO weather
// code, or "Desconhecido" for codes outside the table.
func DescribeWeatherCode(code int) string {
	if d, ok := weatherCodeDescriptions[code]; ok {
		return d
	}
	return "Desconhecido"
}
