package weather

// Condition is the current weather at a coordinate.
type Condition struct {
	Temperature int    `json:"temperature"`
	Condition   string `json:"condition"`
	Humidity    int    `json:"humidity"`
	WindSpeed   int    `json:"wind_speed"`
	Icon        string `json:"icon"`
}
