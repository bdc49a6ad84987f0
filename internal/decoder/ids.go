package decoder

// Known identifiers. The scaling used for them is illustrative and does not
// come from a real vehicle database.
const (
	EngineID          uint32 = 0x123
	BatteryID         uint32 = 0x456
	TransmissionID    uint32 = 0x789
	SpeedSensorID     uint32 = 0x18F
	ClimateID         uint32 = 0x2A0
	DoorStatusID      uint32 = 0x3C1
	DiagnosticRespID  uint32 = 0x4E2
	DiagnosticMinimum uint32 = 0x700
)

// CatalogEntry names one identifier seen on the demo bus.
type CatalogEntry struct {
	ID   uint32
	Name string
}

// Catalog lists the identifiers the simulator emits, in a fixed order.
var Catalog = []CatalogEntry{
	{ID: EngineID, Name: "Engine_Control_Unit"},
	{ID: BatteryID, Name: "Battery_Management"},
	{ID: TransmissionID, Name: "Transmission_Data"},
	{ID: SpeedSensorID, Name: "Vehicle_Speed_Sensor"},
	{ID: ClimateID, Name: "Climate_Control"},
	{ID: DoorStatusID, Name: "Door_Status"},
	{ID: DiagnosticRespID, Name: "Diagnostic_Response"},
}

// Name returns the catalog name of id, or "" when the identifier is unknown.
func Name(id uint32) string {
	for _, e := range Catalog {
		if e.ID == id {
			return e.Name
		}
	}
	return ""
}
