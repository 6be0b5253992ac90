package discovery

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ternarybob/venator/internal/models"
)

// defaultPartitions is the built-in catalog of cities with active crypto communities
var defaultPartitions = []models.Partition{
	{Name: "San Francisco, USA", Latitude: 37.7749, Longitude: -122.4194},
	{Name: "New York, USA", Latitude: 40.7128, Longitude: -74.0060},
	{Name: "London, UK", Latitude: 51.5074, Longitude: -0.1278},
	{Name: "Berlin, Germany", Latitude: 52.5200, Longitude: 13.4050},
	{Name: "Singapore", Latitude: 1.3521, Longitude: 103.8198},
	{Name: "Tokyo, Japan", Latitude: 35.6762, Longitude: 139.6503},
	{Name: "Seoul, South Korea", Latitude: 37.5665, Longitude: 126.9780},
	{Name: "Dubai, UAE", Latitude: 25.2048, Longitude: 55.2708},
	{Name: "Toronto, Canada", Latitude: 43.6532, Longitude: -79.3832},
	{Name: "Sydney, Australia", Latitude: -33.8688, Longitude: 151.2093},
	{Name: "Hong Kong", Latitude: 22.3193, Longitude: 114.1694},
	{Name: "Delhi, India", Latitude: 28.6139, Longitude: 77.2090},
	{Name: "Mumbai, India", Latitude: 19.0760, Longitude: 72.8777},
	{Name: "Bangalore, India", Latitude: 12.9716, Longitude: 77.5946},
	{Name: "Miami, USA", Latitude: 25.7617, Longitude: -80.1918},
	{Name: "Los Angeles, USA", Latitude: 34.0522, Longitude: -118.2437},
	{Name: "Amsterdam, Netherlands", Latitude: 52.3676, Longitude: 4.9041},
	{Name: "Zurich, Switzerland", Latitude: 47.3769, Longitude: 8.5417},
	{Name: "Tel Aviv, Israel", Latitude: 32.0853, Longitude: 34.7818},
	{Name: "Austin, USA", Latitude: 30.2672, Longitude: -97.7431},
	{Name: "Istanbul, Turkey", Latitude: 41.0082, Longitude: 28.9784},
	{Name: "Paris, France", Latitude: 48.8566, Longitude: 2.3522},
	{Name: "Madrid, Spain", Latitude: 40.4168, Longitude: -3.7038},
	{Name: "Rome, Italy", Latitude: 41.9028, Longitude: 12.4964},
	{Name: "Prague, Czech Republic", Latitude: 50.0755, Longitude: 14.4378},
	{Name: "Budapest, Hungary", Latitude: 47.4979, Longitude: 19.0402},
	{Name: "Bucharest, Romania", Latitude: 44.4268, Longitude: 26.1025},
	{Name: "Brussels, Belgium", Latitude: 50.8503, Longitude: 4.3517},
	{Name: "Cape Town, South Africa", Latitude: -33.9249, Longitude: 18.4241},
	{Name: "Nairobi, Kenya", Latitude: -1.2921, Longitude: 36.8219},
	{Name: "Lagos, Nigeria", Latitude: 6.5244, Longitude: 3.3792},
	{Name: "Abu Dhabi, UAE", Latitude: 24.4539, Longitude: 54.3773},
	{Name: "Taipei, Taiwan", Latitude: 25.0330, Longitude: 121.5654},
	{Name: "Manila, Philippines", Latitude: 14.5995, Longitude: 120.9842},
	{Name: "Kuala Lumpur, Malaysia", Latitude: 3.1390, Longitude: 101.6869},
	{Name: "Mexico City, Mexico", Latitude: 19.4326, Longitude: -99.1332},
	{Name: "São Paulo, Brazil", Latitude: -23.5558, Longitude: -46.6396},
	{Name: "Buenos Aires, Argentina", Latitude: -34.6118, Longitude: -58.3960},
	{Name: "Bogotá, Colombia", Latitude: 4.7110, Longitude: -74.0721},
	{Name: "Lima, Peru", Latitude: -12.0464, Longitude: -77.0428},
	{Name: "Beijing, China", Latitude: 39.9042, Longitude: 116.4074},
}

// DefaultPartitions returns a copy of the built-in partition catalog
func DefaultPartitions() []models.Partition {
	partitions := make([]models.Partition, len(defaultPartitions))
	copy(partitions, defaultPartitions)
	return partitions
}

type partitionFile struct {
	Partitions []models.Partition `yaml:"partitions"`
}

// LoadPartitions reads a YAML partition catalog. An empty path returns the built-in catalog.
//
//	partitions:
//	  - name: "Lisbon, Portugal"
//	    lat: 38.7223
//	    lng: -9.1393
func LoadPartitions(path string) ([]models.Partition, error) {
	if path == "" {
		return DefaultPartitions(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read partitions file %s: %w", path, err)
	}

	var file partitionFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse partitions file %s: %w", path, err)
	}

	if len(file.Partitions) == 0 {
		return nil, fmt.Errorf("partitions file %s defines no partitions", path)
	}

	for i, p := range file.Partitions {
		if p.Name == "" {
			return nil, fmt.Errorf("partition %d in %s has no name", i+1, path)
		}
		if p.Latitude < -90 || p.Latitude > 90 || p.Longitude < -180 || p.Longitude > 180 {
			return nil, fmt.Errorf("partition %q has out-of-range coordinates", p.Name)
		}
	}

	return file.Partitions, nil
}
