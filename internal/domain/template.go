package domain

// baseTemplates 按检查类型的默认检查项
var baseTemplates = map[InspectionType][]string{
	InspectionRoutine: {
		"Walls and ceilings free of damage",
		"Floors and floor coverings in good condition",
		"Windows open, close and lock",
		"Doors, handles and locks operate correctly",
		"Light fixtures and switches working",
		"Smoke alarm present and tested",
		"No signs of pests, mould or water damage",
	},
	InspectionMoveIn: {
		"Walls and ceilings condition recorded",
		"Floors and floor coverings condition recorded",
		"Windows, screens and coverings condition recorded",
		"Doors, handles and locks operate correctly",
		"Light fixtures and power points working",
		"Smoke alarm present and tested",
		"Keys and access devices handed over",
		"Property clean at handover",
	},
	InspectionMoveOut: {
		"Walls and ceilings compared with entry report",
		"Floors and floor coverings compared with entry report",
		"Windows, screens and coverings undamaged",
		"Doors, handles and locks operate correctly",
		"Light fixtures and power points working",
		"All tenant belongings removed",
		"Property cleaned to entry standard",
		"Keys and access devices returned",
	},
	InspectionEmergency: {
		"Area made safe",
		"Source of damage identified",
		"Water, gas and electricity isolated if required",
		"Extent of damage documented",
		"Temporary repairs arranged",
	},
	InspectionCompliance: {
		"Smoke alarms compliant and tested",
		"Electrical safety switch tested",
		"Gas appliances serviced and certified",
		"Pool barrier compliant",
		"Window safety devices fitted",
		"Blind cords secured",
	},
}

// roomAddenda 按房间类型追加的检查项（目前只定义了 KITCHEN 和 BATHROOM）
var roomAddenda = map[RoomType][]string{
	RoomKitchen: {
		"Stove, oven and cooktop operational",
		"Range hood and exhaust fan working",
		"Sink and tapware free of leaks",
		"Cabinets, drawers and benchtops intact",
		"Dishwasher operational",
	},
	RoomBathroom: {
		"Toilet flushes and does not leak",
		"Shower and bath drain freely",
		"Basin and tapware free of leaks",
		"Exhaust fan working",
		"Tiles, grout and silicone intact",
		"No mould or mildew present",
	},
}

// ChecklistTemplate returns the default item descriptions for a room: the inspection-type
// base set followed by the room-type addendum. Unknown inspection types yield the ROUTINE set.
func ChecklistTemplate(inspType InspectionType, roomType RoomType) []string {
	base, ok := baseTemplates[inspType]
	if !ok {
		base = baseTemplates[InspectionRoutine]
	}
	addendum := roomAddenda[roomType]

	out := make([]string, 0, len(base)+len(addendum))
	out = append(out, base...)
	out = append(out, addendum...)
	return out
}
