package telemetry

// PWMChannels is the width of the actuator output sequence.
const PWMChannels = 8

// MotorChannels is the width of the legacy motor view derived from the PWM outputs.
const MotorChannels = 6

// ESCChannels is the number of speed controllers reported by fcs_esc.
const ESCChannels = 6

// DefaultPWM is the idle value every PWM channel starts at.
const DefaultPWM = 1000.0

// DefaultMode is the system status mode before any status arrives.
const DefaultMode = "DISARMED"

// FlightState holds the structured flight-controller state estimate.
type FlightState struct {
	Lat    float64 `json:"states_lat"`
	Lon    float64 `json:"states_lon"`
	Height float64 `json:"states_height"`
	VxGS   float64 `json:"states_Vx_GS"`
	VyGS   float64 `json:"states_Vy_GS"`
	VzGS   float64 `json:"states_Vz_GS"`
	P      float64 `json:"states_p"`
	Q      float64 `json:"states_q"`
	R      float64 `json:"states_r"`
	Phi    float64 `json:"states_phi"`
	Theta  float64 `json:"states_theta"`
	Psi    float64 `json:"states_psi"`
}

// Attitude, Position, Velocity and AngularVelocity are the simplified views
// kept in step by legacy flat fields.
type Attitude struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

type Position struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Alt    float64 `json:"alt"`
	RelAlt float64 `json:"relAlt"`
}

type Velocity struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type AngularVelocity struct {
	P float64 `json:"p"`
	Q float64 `json:"q"`
	R float64 `json:"r"`
}

// ActuatorOutputs holds the PWM outputs and the six-rotor legacy view.
type ActuatorOutputs struct {
	PWM    [PWMChannels]float64   `json:"pwms"`
	Motors [MotorChannels]float64 `json:"motors"`
}

// ControlLoop holds reference and estimated values per axis plus the four
// control outputs.
type ControlLoop struct {
	RefRoll  float64    `json:"refRoll"`
	RefPitch float64    `json:"refPitch"`
	RefYaw   float64    `json:"refYaw"`
	RefAlt   float64    `json:"refAlt"`
	RefVx    float64    `json:"refVx"`
	RefVy    float64    `json:"refVy"`
	RefVz    float64    `json:"refVz"`
	EstRoll  float64    `json:"estRoll"`
	EstPitch float64    `json:"estPitch"`
	EstYaw   float64    `json:"estYaw"`
	EstAlt   float64    `json:"estAlt"`
	EstVx    float64    `json:"estVx"`
	EstVy    float64    `json:"estVy"`
	EstVz    float64    `json:"estVz"`
	CtrlU    [4]float64 `json:"ctrlU"`
}

// GuidanceBus holds the GN&C command values and the legacy parallel set.
type GuidanceBus struct {
	VxCmd       float64    `json:"GNCBus_CmdValue_Vx_cmd"`
	VyCmd       float64    `json:"GNCBus_CmdValue_Vy_cmd"`
	HeightCmd   float64    `json:"GNCBus_CmdValue_height_cmd"`
	PsiCmd      float64    `json:"GNCBus_CmdValue_psi_cmd"`
	Pos         [3]float64 `json:"pos"`
	Vel         [3]float64 `json:"vel"`
	Euler       [3]float64 `json:"euler"`
	ControlMode int        `json:"control_mode"`
	FlightMode  int        `json:"flight_mode"`
}

type AvoidanceFlags struct {
	LaserRadarEnabled bool `json:"AvoiFlag_LaserRadar_Enabled"`
	AvoidanceFlag     bool `json:"AvoiFlag_AvoidanceFlag"`
	GuideFlag         bool `json:"AvoiFlag_GuideFlag"`
}

// RemoteControl is the Futaba transmitter telemetry.
type RemoteControl struct {
	Roll    float64 `json:"Tele_ftb_Roll"`
	Pitch   float64 `json:"Tele_ftb_Pitch"`
	Yaw     float64 `json:"Tele_ftb_Yaw"`
	Col     float64 `json:"Tele_ftb_Col"`
	Switch  int     `json:"Tele_ftb_Switch"`
	ComFail int     `json:"Tele_ftb_com_Ftb_fail"`
}

type ESCStatus struct {
	ErrorCount     [ESCChannels]int `json:"errorCounts"`
	RPM            [ESCChannels]int `json:"rpms"`
	PowerRatingPct [ESCChannels]int `json:"powerRatings"`
}

// GroundStation is the echo of ground-station commands seen by the vehicle.
type GroundStation struct {
	CmdIdx  int     `json:"Tele_GCS_CmdIdx"`
	Mission int     `json:"Tele_GCS_Mission"`
	Val     float64 `json:"Tele_GCS_Val"`
	ComFail int     `json:"Tele_GCS_com_GCS_fail"`
}

type Parameter struct {
	ID    int     `json:"paramId"`
	Value float64 `json:"paramValue"`
	Min   float64 `json:"paramMin"`
	Max   float64 `json:"paramMax"`
}

type LidarStatus struct {
	Running          bool `json:"isRunning"`
	Connected        bool `json:"lidarConnected"`
	IMUValid         bool `json:"imuDataValid"`
	MotionCompActive bool `json:"motionCompActive"`
}

// Point3 is a position in the local planning frame.
type Point3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

type PlanningTelemetry struct {
	SeqID           int      `json:"seqId"`
	Timestamp       int      `json:"timestamp"`
	CurrentPosX     float64  `json:"currentPosX"`
	CurrentPosY     float64  `json:"currentPosY"`
	CurrentPosZ     float64  `json:"currentPosZ"`
	CurrentVel      float64  `json:"currentVel"`
	UpdateFlags     int      `json:"updateFlags"`
	Status          int      `json:"status"`
	GlobalPathCount int      `json:"globalPathCount"`
	LocalTrajCount  int      `json:"localTrajCount"`
	ObstacleCount   int      `json:"obstacleCount"`
	GlobalPath      []Point3 `json:"globalPath"`
	LocalTraj       []Point3 `json:"localTraj"`
}

type Obstacle struct {
	ID         int     `json:"id"`
	X          float64 `json:"position_x"`
	Y          float64 `json:"position_y"`
	Z          float64 `json:"position_z"`
	SizeX      float64 `json:"size_x"`
	SizeY      float64 `json:"size_y"`
	SizeZ      float64 `json:"size_z"`
	Radius     float64 `json:"radius"`
	HeightMin  float64 `json:"height_min"`
	HeightMax  float64 `json:"height_max"`
	Distance   float64 `json:"distance"`
	Azimuth    float64 `json:"azimuth"`
	Confidence float64 `json:"confidence"`
	PointCount int     `json:"point_count"`
	Density    float64 `json:"density"`
}

// ObstacleSet keeps the planning-derived and lidar-derived lists apart.
type ObstacleSet struct {
	Planning []Obstacle `json:"planning"`
	Lidar    []Obstacle `json:"lidar"`
}

type SystemStatus struct {
	Mode          string  `json:"mode"`
	Battery       float64 `json:"battery"`
	Voltage       float64 `json:"voltage"`
	Current       float64 `json:"current"`
	GPSSatellites int     `json:"gpsSatellites"`
	LinkQuality   float64 `json:"linkQuality"`

	// Mirrors of the legacy avoidance aliases.
	LaserRadarEnabled bool `json:"laserRadarEnabled"`
	AvoidanceFlag     bool `json:"avoidanceFlag"`
	GuideFlag         bool `json:"guideFlag"`
}

// Armed reports whether the vehicle has left the disarmed mode.
func (s SystemStatus) Armed() bool { return s.Mode != DefaultMode }

// LowBattery reports a pack voltage under 21 V.
func (s SystemStatus) LowBattery() bool { return s.Voltage < 21.0 }

// LinkQualityText buckets the link quality percentage.
func (s SystemStatus) LinkQualityText() string {
	switch {
	case s.LinkQuality > 80:
		return "excellent"
	case s.LinkQuality > 50:
		return "good"
	case s.LinkQuality > 30:
		return "fair"
	}
	return "poor"
}

// State is the canonical vehicle state. It is a value: merges return a new
// State and never mutate their input.
type State struct {
	Flight          FlightState       `json:"fcsStates"`
	Attitude        Attitude          `json:"attitude"`
	Position        Position          `json:"position"`
	Velocity        Velocity          `json:"velocity"`
	AngularVelocity AngularVelocity   `json:"angularVelocity"`
	Actuators       ActuatorOutputs   `json:"actuators"`
	ControlLoop     ControlLoop       `json:"controlLoop"`
	Guidance        GuidanceBus       `json:"gncBus"`
	Avoidance       AvoidanceFlags    `json:"avoiFlag"`
	RemoteControl   RemoteControl     `json:"fcsData"`
	ESC             ESCStatus         `json:"escData"`
	GroundStation   GroundStation     `json:"gcsData"`
	Parameter       Parameter         `json:"fcsParam"`
	Lidar           LidarStatus       `json:"lidarStatus"`
	Planning        PlanningTelemetry `json:"planningTelemetry"`
	Obstacles       ObstacleSet       `json:"obstacles"`
	System          SystemStatus      `json:"systemStatus"`
}

// NewState returns the initial canonical state.
func NewState() State {
	var s State
	for i := range s.Actuators.PWM {
		s.Actuators.PWM[i] = DefaultPWM
	}
	s.System.Mode = DefaultMode
	s.Obstacles = ObstacleSet{Planning: []Obstacle{}, Lidar: []Obstacle{}}
	return s
}
