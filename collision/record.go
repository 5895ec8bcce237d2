package collision

// Source column names, spelled exactly as they appear in the header.
const (
	ColCrashDate          = "CRASH DATE"
	ColCrashTime          = "CRASH TIME"
	ColBorough            = "BOROUGH"
	ColZipCode            = "ZIP CODE"
	ColLatitude           = "LATITUDE"
	ColLongitude          = "LONGITUDE"
	ColLocation           = "LOCATION"
	ColOnStreetName       = "ON STREET NAME"
	ColCrossStreetName    = "CROSS STREET NAME"
	ColOffStreetName      = "OFF STREET NAME"
	ColPersonsInjured     = "NUMBER OF PERSONS INJURED"
	ColPersonsKilled      = "NUMBER OF PERSONS KILLED"
	ColPedestriansInjured = "NUMBER OF PEDESTRIANS INJURED"
	ColPedestriansKilled  = "NUMBER OF PEDESTRIANS KILLED"
	ColCyclistInjured     = "NUMBER OF CYCLIST INJURED"
	ColCyclistKilled      = "NUMBER OF CYCLIST KILLED"
	ColMotoristInjured    = "NUMBER OF MOTORIST INJURED"
	ColMotoristKilled     = "NUMBER OF MOTORIST KILLED"
	ColCollisionID        = "COLLISION_ID"
)

// Columns lists every recognized column in wire field order.
var Columns = []string{
	ColCrashDate,
	ColCrashTime,
	ColBorough,
	ColZipCode,
	ColLatitude,
	ColLongitude,
	ColLocation,
	ColOnStreetName,
	ColCrossStreetName,
	ColOffStreetName,
	ColPersonsInjured,
	ColPersonsKilled,
	ColPedestriansInjured,
	ColPedestriansKilled,
	ColCyclistInjured,
	ColCyclistKilled,
	ColMotoristInjured,
	ColMotoristKilled,
	ColCollisionID,
}

// Row maps header column names to the raw values of one source line.
// A column missing from the map is absent; a present column may be empty.
type Row map[string]string

// Lookup returns the raw value of col and whether the column is present.
func (r Row) Lookup(col string) (string, bool) {
	v, ok := r[col]
	return v, ok
}

// Get returns the raw value of col, or "" when the column is absent.
func (r Row) Get(col string) string {
	return r[col]
}

// Record is one decoded collision.
type Record struct {
	CrashDate       string  `csv:"CRASH DATE"`
	CrashTime       string  `csv:"CRASH TIME"`
	Borough         string  `csv:"BOROUGH"`
	ZipCode         string  `csv:"ZIP CODE"`
	Latitude        float64 `csv:"LATITUDE"`
	Longitude       float64 `csv:"LONGITUDE"`
	Location        string  `csv:"LOCATION"`
	OnStreetName    string  `csv:"ON STREET NAME"`
	CrossStreetName string  `csv:"CROSS STREET NAME"`
	OffStreetName   string  `csv:"OFF STREET NAME"`

	PersonsInjured     int32 `csv:"NUMBER OF PERSONS INJURED" validate:"gte=0"`
	PersonsKilled      int32 `csv:"NUMBER OF PERSONS KILLED" validate:"gte=0"`
	PedestriansInjured int32 `csv:"NUMBER OF PEDESTRIANS INJURED" validate:"gte=0"`
	PedestriansKilled  int32 `csv:"NUMBER OF PEDESTRIANS KILLED" validate:"gte=0"`
	CyclistInjured     int32 `csv:"NUMBER OF CYCLIST INJURED" validate:"gte=0"`
	CyclistKilled      int32 `csv:"NUMBER OF CYCLIST KILLED" validate:"gte=0"`
	MotoristInjured    int32 `csv:"NUMBER OF MOTORIST INJURED" validate:"gte=0"`
	MotoristKilled     int32 `csv:"NUMBER OF MOTORIST KILLED" validate:"gte=0"`

	CollisionID string `csv:"COLLISION_ID" validate:"required"`
}
