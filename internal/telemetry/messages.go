package telemetry

import (
	"encoding/json"
	"fmt"
)

// Message is a typed channel message. Each variant carries only the fields
// its payload supplied.
type Message interface {
	Kind() Kind
}

type FlightStateUpdate struct {
	Lat, Lon, Height Slot[float64]
	VxGS, VyGS, VzGS Slot[float64]
	P, Q, R          Slot[float64]
	Phi, Theta, Psi  Slot[float64]
}

// PWMUpdate carries the channels in wire order. An unusable element is kept
// as an absent entry so later channels keep their index.
type PWMUpdate struct {
	Channels []Opt[float64]
}

type ControlLoopUpdate struct {
	RefRoll, RefPitch, RefYaw, RefAlt Slot[float64]
	RefVx, RefVy, RefVz               Slot[float64]
	EstRoll, EstPitch, EstYaw, EstAlt Slot[float64]
	EstVx, EstVy, EstVz               Slot[float64]
	CtrlU                             [4]Slot[float64]
}

type GuidanceBusUpdate struct {
	VxCmd, VyCmd, HeightCmd, PsiCmd Slot[float64]
	Pos, Vel, Euler                 [3]Slot[float64]
	ControlMode, FlightMode         Slot[int]
}

type AvoidanceUpdate struct {
	LaserRadarEnabled, AvoidanceFlag, GuideFlag Slot[bool]
}

type RemoteControlUpdate struct {
	Roll, Pitch, Yaw, Col Slot[float64]
	Switch, ComFail       Slot[int]
}

type ESCUpdate struct {
	ErrorCount, RPM, PowerRatingPct [ESCChannels]Slot[int]
}

type GroundStationUpdate struct {
	CmdIdx, Mission, ComFail Slot[int]
	Val                      Slot[float64]
}

type ParameterUpdate struct {
	ID              Slot[int]
	Value, Min, Max Slot[float64]
}

type LidarStatusUpdate struct {
	Running, Connected, IMUValid, MotionCompActive Slot[bool]
}

type PlanningUpdate struct {
	SeqID, Timestamp, UpdateFlags, Status             Slot[int]
	GlobalPathCount, LocalTrajCount, ObstacleCount    Slot[int]
	CurrentPosX, CurrentPosY, CurrentPosZ, CurrentVel Slot[float64]
	GlobalPath, LocalTraj                             Opt[[]Point3]
}

// ObstacleSource distinguishes the two independent obstacle lists.
type ObstacleSource int

const (
	FromPlanning ObstacleSource = iota
	FromLidar
)

// ObstaclesUpdate replaces one obstacle list wholesale.
type ObstaclesUpdate struct {
	Source    ObstacleSource
	Obstacles []Obstacle
}

type SystemStatusUpdate struct {
	Mode                                   Opt[string]
	Battery, Voltage, Current, LinkQuality Slot[float64]
	GPSSatellites                          Slot[int]
}

// LogMessage is a log line pushed by the backend.
type LogMessage struct {
	Message string
	Level   string
}

type CommandResponse struct {
	Command string
	Status  string
	Fields  Fields
}

// ConfigUpdate is a shallow partial update of the connection configuration.
type ConfigUpdate struct {
	Fields Fields
}

type ModeChange struct {
	Mode string
}

// ReplayStatusUpdate is a partial replay status; absent slots leave the
// corresponding field untouched.
type ReplayStatusUpdate struct {
	IsLoaded, IsPlaying, ReplayActive       Slot[bool]
	CurrentFile                             Opt[string]
	CurrentIndex, TotalRows                 Slot[int]
	TotalTime, Speed, Progress, CurrentTime Slot[float64]
}

// ReplayResponse acknowledges a replay control action.
type ReplayResponse struct {
	Action    string
	Status    string
	Message   string
	TotalTime Opt[float64]
	Progress  Opt[float64]
	Speed     Opt[float64]
}

// Unknown is any frame whose type is outside the catalog.
type Unknown struct {
	Type Kind
}

func (FlightStateUpdate) Kind() Kind   { return KindFlightState }
func (PWMUpdate) Kind() Kind           { return KindPWM }
func (ControlLoopUpdate) Kind() Kind   { return KindControlLoop }
func (GuidanceBusUpdate) Kind() Kind   { return KindGuidanceBus }
func (AvoidanceUpdate) Kind() Kind     { return KindAvoidance }
func (RemoteControlUpdate) Kind() Kind { return KindRemoteControl }
func (ESCUpdate) Kind() Kind           { return KindESC }
func (GroundStationUpdate) Kind() Kind { return KindGroundStation }
func (ParameterUpdate) Kind() Kind     { return KindParameter }
func (LidarStatusUpdate) Kind() Kind   { return KindLidarStatus }
func (PlanningUpdate) Kind() Kind      { return KindPlanning }
func (SystemStatusUpdate) Kind() Kind  { return KindSystemStatus }
func (LogMessage) Kind() Kind          { return KindLog }
func (CommandResponse) Kind() Kind     { return KindCommandResp }
func (ConfigUpdate) Kind() Kind        { return KindConfigUpdate }
func (ModeChange) Kind() Kind          { return KindModeChange }
func (ReplayStatusUpdate) Kind() Kind  { return KindReplayStatus }
func (ReplayResponse) Kind() Kind      { return KindReplayResponse }
func (u Unknown) Kind() Kind           { return u.Type }

func (o ObstaclesUpdate) Kind() Kind {
	if o.Source == FromLidar {
		return KindLidarObstacles
	}
	return KindObstacles
}

// Parse turns a decoded frame into its typed message. Frames with a type
// outside the catalog return Unknown and an error wrapping ErrUnknownType.
func Parse(fr Frame) (Message, error) {
	switch fr.Type {
	case KindPWM:
		return parsePWM(fr.Payload), nil
	case KindLog:
		return parseLog(fr), nil
	case KindCommandResp:
		h := headerOrPayload(fr)
		return CommandResponse{
			Command: h.String("command").Or(""),
			Status:  h.String("status").Or(""),
			Fields:  h,
		}, nil
	case KindModeChange:
		return ModeChange{Mode: headerOrPayload(fr).String("mode").Or("")}, nil
	case KindReplayResponse:
		return parseReplayResponse(headerOrPayload(fr)), nil
	}

	f := ParseFields(fr.Payload)
	switch fr.Type {
	case KindFlightState:
		var u FlightStateUpdate
		bind(f, &u, flightStateTable, asFloat)
		return u, nil
	case KindControlLoop:
		var u ControlLoopUpdate
		bind(f, &u, controlLoopTable, asFloat)
		return u, nil
	case KindGuidanceBus:
		var u GuidanceBusUpdate
		bind(f, &u, guidanceFloatTable, asFloat)
		bind(f, &u, guidanceIntTable, asInt)
		return u, nil
	case KindAvoidance:
		var u AvoidanceUpdate
		bind(f, &u, avoidanceTable, asBool)
		return u, nil
	case KindRemoteControl:
		var u RemoteControlUpdate
		bind(f, &u, remoteFloatTable, asFloat)
		bind(f, &u, remoteIntTable, asInt)
		return u, nil
	case KindESC:
		var u ESCUpdate
		bind(f, &u, escTable, asInt)
		return u, nil
	case KindGroundStation:
		var u GroundStationUpdate
		bind(f, &u, gcsIntTable, asInt)
		bind(f, &u, gcsFloatTable, asFloat)
		return u, nil
	case KindParameter:
		var u ParameterUpdate
		bind(f, &u, paramIntTable, asInt)
		bind(f, &u, paramFloatTable, asFloat)
		return u, nil
	case KindLidarStatus:
		var u LidarStatusUpdate
		bind(f, &u, lidarStatusTable, asBool)
		return u, nil
	case KindPlanning:
		var u PlanningUpdate
		bind(f, &u, planningIntTable, asInt)
		bind(f, &u, planningFloatTable, asFloat)
		u.GlobalPath = parsePath(f, "global_path")
		u.LocalTraj = parsePath(f, "local_traj", "local_path")
		return u, nil
	case KindObstacles:
		return ObstaclesUpdate{Source: FromPlanning, Obstacles: parseObstacles(f)}, nil
	case KindLidarObstacles:
		return ObstaclesUpdate{Source: FromLidar, Obstacles: parseObstacles(f)}, nil
	case KindSystemStatus:
		var u SystemStatusUpdate
		u.Mode = f.String("mode")
		bind(f, &u, systemFloatTable, asFloat)
		bind(f, &u, systemIntTable, asInt)
		return u, nil
	case KindConfigUpdate:
		return ConfigUpdate{Fields: f}, nil
	case KindReplayStatus:
		var u ReplayStatusUpdate
		bind(f, &u, replayBoolTable, asBool)
		bind(f, &u, replayIntTable, asInt)
		bind(f, &u, replayFloatTable, asFloat)
		u.CurrentFile = f.ClearableString("current_file")
		return u, nil
	}
	return Unknown{Type: fr.Type}, fmt.Errorf("%w: %q", ErrUnknownType, fr.Type)
}

// headerOrPayload returns the fields of the object carrying the type,
// overlaid with any fields of an object payload. Some producers place
// response fields at the top level and others under data.
func headerOrPayload(fr Frame) Fields {
	out := Fields{}
	for k, v := range fr.Header {
		out[k] = v
	}
	for k, v := range ParseFields(fr.Payload) {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out
}

func parseLog(fr Frame) LogMessage {
	h := headerOrPayload(fr)
	return LogMessage{
		Message: h.String("message").Or(""),
		Level:   h.String("level").Or("info"),
	}
}

func parseReplayResponse(h Fields) ReplayResponse {
	return ReplayResponse{
		Action:    h.String("action").Or(""),
		Status:    h.String("status").Or(""),
		Message:   h.String("message").Or(""),
		TotalTime: h.Float("total_time"),
		Progress:  h.Float("progress"),
		Speed:     h.Float("speed"),
	}
}

// parsePWM accepts a bare array or an object with a pwms array.
func parsePWM(payload json.RawMessage) PWMUpdate {
	elems, ok := arrayValue(payload)
	if !ok {
		elems, _ = ParseFields(payload).Array("pwms")
	}
	u := PWMUpdate{Channels: make([]Opt[float64], 0, len(elems))}
	for _, e := range elems {
		u.Channels = append(u.Channels, floatValue(e))
	}
	return u
}

func parsePath(f Fields, keys ...string) Opt[[]Point3] {
	for _, key := range keys {
		elems, ok := f.Array(key)
		if !ok {
			continue
		}
		path := make([]Point3, 0, len(elems))
		for _, e := range elems {
			p := ParseFields(e)
			path = append(path, Point3{
				X: p.Float("x").Or(0),
				Y: p.Float("y").Or(0),
				Z: p.Float("z").Or(0),
			})
		}
		return Some(path)
	}
	return Opt[[]Point3]{}
}

// parseObstacles reads data.obstacles; an absent or non-array value yields
// an empty list.
func parseObstacles(f Fields) []Obstacle {
	elems, _ := f.Array("obstacles")
	out := make([]Obstacle, 0, len(elems))
	for _, e := range elems {
		var u obstacleUpdate
		of := ParseFields(e)
		bind(of, &u, obstacleFloatTable, asFloat)
		bind(of, &u, obstacleIntTable, asInt)
		out = append(out, u.obstacle())
	}
	return out
}

type obstacleUpdate struct {
	ID, PointCount                Slot[int]
	X, Y, Z, SizeX, SizeY, SizeZ  Slot[float64]
	Radius, HeightMin, HeightMax  Slot[float64]
	Distance, Azimuth, Confidence Slot[float64]
	Density                       Slot[float64]
}

func (u obstacleUpdate) obstacle() Obstacle {
	var o Obstacle
	u.ID.apply(&o.ID)
	u.PointCount.apply(&o.PointCount)
	u.X.apply(&o.X)
	u.Y.apply(&o.Y)
	u.Z.apply(&o.Z)
	u.SizeX.apply(&o.SizeX)
	u.SizeY.apply(&o.SizeY)
	u.SizeZ.apply(&o.SizeZ)
	u.Radius.apply(&o.Radius)
	u.HeightMin.apply(&o.HeightMin)
	u.HeightMax.apply(&o.HeightMax)
	u.Distance.apply(&o.Distance)
	u.Azimuth.apply(&o.Azimuth)
	u.Confidence.apply(&o.Confidence)
	u.Density.apply(&o.Density)
	return o
}
