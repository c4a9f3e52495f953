package telemetry

import "fmt"

// Precedence tables. Within a row the structured key is applied first, then
// the legacy alias, then the legacy array element, so the last encoding
// present wins in canonical state.

type (
	flightBinding  = binding[FlightStateUpdate, float64]
	controlBinding = binding[ControlLoopUpdate, float64]
	guidanceFloat  = binding[GuidanceBusUpdate, float64]
	guidanceInt    = binding[GuidanceBusUpdate, int]
	avoidBinding   = binding[AvoidanceUpdate, bool]
	remoteFloat    = binding[RemoteControlUpdate, float64]
	remoteInt      = binding[RemoteControlUpdate, int]
	escBinding     = binding[ESCUpdate, int]
	gcsFloat       = binding[GroundStationUpdate, float64]
	gcsInt         = binding[GroundStationUpdate, int]
	paramFloat     = binding[ParameterUpdate, float64]
	paramInt       = binding[ParameterUpdate, int]
	lidarBinding   = binding[LidarStatusUpdate, bool]
	planningFloat  = binding[PlanningUpdate, float64]
	planningInt    = binding[PlanningUpdate, int]
	systemFloat    = binding[SystemStatusUpdate, float64]
	systemInt      = binding[SystemStatusUpdate, int]
	replayBool     = binding[ReplayStatusUpdate, bool]
	replayInt      = binding[ReplayStatusUpdate, int]
	replayFloat    = binding[ReplayStatusUpdate, float64]
	obstacleFloat  = binding[obstacleUpdate, float64]
	obstacleInt    = binding[obstacleUpdate, int]
)

var flightStateTable = []flightBinding{
	{New: "states_lat", Legacy: "latitude", Slot: func(u *FlightStateUpdate) *Slot[float64] { return &u.Lat }},
	{New: "states_lon", Legacy: "longitude", Slot: func(u *FlightStateUpdate) *Slot[float64] { return &u.Lon }},
	{New: "states_height", Legacy: "altitude", Slot: func(u *FlightStateUpdate) *Slot[float64] { return &u.Height }},
	{New: "states_Vx_GS", Legacy: "velocity_x", Slot: func(u *FlightStateUpdate) *Slot[float64] { return &u.VxGS }},
	{New: "states_Vy_GS", Legacy: "velocity_y", Slot: func(u *FlightStateUpdate) *Slot[float64] { return &u.VyGS }},
	{New: "states_Vz_GS", Legacy: "velocity_z", Slot: func(u *FlightStateUpdate) *Slot[float64] { return &u.VzGS }},
	{New: "states_p", Legacy: "angular_velocity_x", Slot: func(u *FlightStateUpdate) *Slot[float64] { return &u.P }},
	{New: "states_q", Legacy: "angular_velocity_y", Slot: func(u *FlightStateUpdate) *Slot[float64] { return &u.Q }},
	{New: "states_r", Legacy: "angular_velocity_z", Slot: func(u *FlightStateUpdate) *Slot[float64] { return &u.R }},
	{New: "states_phi", Legacy: "roll", Slot: func(u *FlightStateUpdate) *Slot[float64] { return &u.Phi }},
	{New: "states_theta", Legacy: "pitch", Slot: func(u *FlightStateUpdate) *Slot[float64] { return &u.Theta }},
	{New: "states_psi", Legacy: "yaw", Slot: func(u *FlightStateUpdate) *Slot[float64] { return &u.Psi }},
}

var controlLoopTable = []controlBinding{
	{New: "ref_p", Slot: func(u *ControlLoopUpdate) *Slot[float64] { return &u.RefRoll }},
	{New: "ref_theta", Slot: func(u *ControlLoopUpdate) *Slot[float64] { return &u.RefPitch }},
	{New: "ref_psi", Slot: func(u *ControlLoopUpdate) *Slot[float64] { return &u.RefYaw }},
	{New: "ref_h", Slot: func(u *ControlLoopUpdate) *Slot[float64] { return &u.RefAlt }},
	{New: "ref_vx", Slot: func(u *ControlLoopUpdate) *Slot[float64] { return &u.RefVx }},
	{New: "ref_vy", Slot: func(u *ControlLoopUpdate) *Slot[float64] { return &u.RefVy }},
	{New: "ref_vz", Slot: func(u *ControlLoopUpdate) *Slot[float64] { return &u.RefVz }},
	{New: "est_p", Slot: func(u *ControlLoopUpdate) *Slot[float64] { return &u.EstRoll }},
	{New: "est_theta", Slot: func(u *ControlLoopUpdate) *Slot[float64] { return &u.EstPitch }},
	{New: "est_psi", Slot: func(u *ControlLoopUpdate) *Slot[float64] { return &u.EstYaw }},
	{New: "est_h", Slot: func(u *ControlLoopUpdate) *Slot[float64] { return &u.EstAlt }},
	{New: "est_vx", Slot: func(u *ControlLoopUpdate) *Slot[float64] { return &u.EstVx }},
	{New: "est_vy", Slot: func(u *ControlLoopUpdate) *Slot[float64] { return &u.EstVy }},
	{New: "est_vz", Slot: func(u *ControlLoopUpdate) *Slot[float64] { return &u.EstVz }},
	{New: "ctrl_u1", Slot: func(u *ControlLoopUpdate) *Slot[float64] { return &u.CtrlU[0] }},
	{New: "ctrl_u2", Slot: func(u *ControlLoopUpdate) *Slot[float64] { return &u.CtrlU[1] }},
	{New: "ctrl_u3", Slot: func(u *ControlLoopUpdate) *Slot[float64] { return &u.CtrlU[2] }},
	{New: "ctrl_u4", Slot: func(u *ControlLoopUpdate) *Slot[float64] { return &u.CtrlU[3] }},
}

var guidanceFloatTable = []guidanceFloat{
	{New: "GNCBus_CmdValue_Vx_cmd", Slot: func(u *GuidanceBusUpdate) *Slot[float64] { return &u.VxCmd }},
	{New: "GNCBus_CmdValue_Vy_cmd", Slot: func(u *GuidanceBusUpdate) *Slot[float64] { return &u.VyCmd }},
	{New: "GNCBus_CmdValue_height_cmd", Slot: func(u *GuidanceBusUpdate) *Slot[float64] { return &u.HeightCmd }},
	{New: "GNCBus_CmdValue_psi_cmd", Slot: func(u *GuidanceBusUpdate) *Slot[float64] { return &u.PsiCmd }},
	{Legacy: "pos_x", Slot: func(u *GuidanceBusUpdate) *Slot[float64] { return &u.Pos[0] }},
	{Legacy: "pos_y", Slot: func(u *GuidanceBusUpdate) *Slot[float64] { return &u.Pos[1] }},
	{Legacy: "pos_z", Slot: func(u *GuidanceBusUpdate) *Slot[float64] { return &u.Pos[2] }},
	{Legacy: "vel_x", Slot: func(u *GuidanceBusUpdate) *Slot[float64] { return &u.Vel[0] }},
	{Legacy: "vel_y", Slot: func(u *GuidanceBusUpdate) *Slot[float64] { return &u.Vel[1] }},
	{Legacy: "vel_z", Slot: func(u *GuidanceBusUpdate) *Slot[float64] { return &u.Vel[2] }},
	{Legacy: "euler_phi", Slot: func(u *GuidanceBusUpdate) *Slot[float64] { return &u.Euler[0] }},
	{Legacy: "euler_theta", Slot: func(u *GuidanceBusUpdate) *Slot[float64] { return &u.Euler[1] }},
	{Legacy: "euler_psi", Slot: func(u *GuidanceBusUpdate) *Slot[float64] { return &u.Euler[2] }},
}

var guidanceIntTable = []guidanceInt{
	{Legacy: "control_mode", Slot: func(u *GuidanceBusUpdate) *Slot[int] { return &u.ControlMode }},
	{Legacy: "flight_mode", Slot: func(u *GuidanceBusUpdate) *Slot[int] { return &u.FlightMode }},
}

var avoidanceTable = []avoidBinding{
	{New: "AvoiFlag_LaserRadar_Enabled", Legacy: "laser_radar_enabled", Slot: func(u *AvoidanceUpdate) *Slot[bool] { return &u.LaserRadarEnabled }},
	{New: "AvoiFlag_AvoidanceFlag", Legacy: "avoidance_flag", Slot: func(u *AvoidanceUpdate) *Slot[bool] { return &u.AvoidanceFlag }},
	{New: "AvoiFlag_GuideFlag", Legacy: "guide_flag", Slot: func(u *AvoidanceUpdate) *Slot[bool] { return &u.GuideFlag }},
}

var remoteFloatTable = []remoteFloat{
	{New: "Tele_ftb_Roll", Slot: func(u *RemoteControlUpdate) *Slot[float64] { return &u.Roll }},
	{New: "Tele_ftb_Pitch", Slot: func(u *RemoteControlUpdate) *Slot[float64] { return &u.Pitch }},
	{New: "Tele_ftb_Yaw", Slot: func(u *RemoteControlUpdate) *Slot[float64] { return &u.Yaw }},
	{New: "Tele_ftb_Col", Slot: func(u *RemoteControlUpdate) *Slot[float64] { return &u.Col }},
}

var remoteIntTable = []remoteInt{
	{New: "Tele_ftb_Switch", Slot: func(u *RemoteControlUpdate) *Slot[int] { return &u.Switch }},
	{New: "Tele_ftb_com_Ftb_fail", Slot: func(u *RemoteControlUpdate) *Slot[int] { return &u.ComFail }},
}

// escTable binds esc<N>_error_count, esc<N>_rpm and esc<N>_power_rating_pct
// with the error_counts, rpms and power_ratings arrays as the later encoding.
var escTable = func() []escBinding {
	var t []escBinding
	for i := range ESCChannels {
		t = append(t,
			escBinding{New: fmt.Sprintf("esc%d_error_count", i+1), Array: "error_counts", Index: i,
				Slot: func(u *ESCUpdate) *Slot[int] { return &u.ErrorCount[i] }},
			escBinding{New: fmt.Sprintf("esc%d_rpm", i+1), Array: "rpms", Index: i,
				Slot: func(u *ESCUpdate) *Slot[int] { return &u.RPM[i] }},
			escBinding{New: fmt.Sprintf("esc%d_power_rating_pct", i+1), Array: "power_ratings", Index: i,
				Slot: func(u *ESCUpdate) *Slot[int] { return &u.PowerRatingPct[i] }},
		)
	}
	return t
}()

var gcsIntTable = []gcsInt{
	{New: "Tele_GCS_CmdIdx", Slot: func(u *GroundStationUpdate) *Slot[int] { return &u.CmdIdx }},
	{New: "Tele_GCS_Mission", Slot: func(u *GroundStationUpdate) *Slot[int] { return &u.Mission }},
	{New: "Tele_GCS_com_GCS_fail", Slot: func(u *GroundStationUpdate) *Slot[int] { return &u.ComFail }},
}

var gcsFloatTable = []gcsFloat{
	{New: "Tele_GCS_Val", Slot: func(u *GroundStationUpdate) *Slot[float64] { return &u.Val }},
}

var paramIntTable = []paramInt{
	{New: "param_id", Slot: func(u *ParameterUpdate) *Slot[int] { return &u.ID }},
}

var paramFloatTable = []paramFloat{
	{New: "param_value", Slot: func(u *ParameterUpdate) *Slot[float64] { return &u.Value }},
	{New: "param_min", Slot: func(u *ParameterUpdate) *Slot[float64] { return &u.Min }},
	{New: "param_max", Slot: func(u *ParameterUpdate) *Slot[float64] { return &u.Max }},
}

var lidarStatusTable = []lidarBinding{
	{New: "is_running", Slot: func(u *LidarStatusUpdate) *Slot[bool] { return &u.Running }},
	{New: "lidar_connected", Slot: func(u *LidarStatusUpdate) *Slot[bool] { return &u.Connected }},
	{New: "imu_data_valid", Slot: func(u *LidarStatusUpdate) *Slot[bool] { return &u.IMUValid }},
	{New: "motion_comp_active", Slot: func(u *LidarStatusUpdate) *Slot[bool] { return &u.MotionCompActive }},
}

var planningIntTable = []planningInt{
	{New: "seq_id", Slot: func(u *PlanningUpdate) *Slot[int] { return &u.SeqID }},
	{New: "timestamp", Slot: func(u *PlanningUpdate) *Slot[int] { return &u.Timestamp }},
	{New: "update_flags", Slot: func(u *PlanningUpdate) *Slot[int] { return &u.UpdateFlags }},
	{New: "status", Slot: func(u *PlanningUpdate) *Slot[int] { return &u.Status }},
	{New: "global_path_count", Slot: func(u *PlanningUpdate) *Slot[int] { return &u.GlobalPathCount }},
	{New: "local_traj_count", Slot: func(u *PlanningUpdate) *Slot[int] { return &u.LocalTrajCount }},
	{New: "obstacle_count", Slot: func(u *PlanningUpdate) *Slot[int] { return &u.ObstacleCount }},
}

var planningFloatTable = []planningFloat{
	{New: "current_pos_x", Slot: func(u *PlanningUpdate) *Slot[float64] { return &u.CurrentPosX }},
	{New: "current_pos_y", Slot: func(u *PlanningUpdate) *Slot[float64] { return &u.CurrentPosY }},
	{New: "current_pos_z", Slot: func(u *PlanningUpdate) *Slot[float64] { return &u.CurrentPosZ }},
	{New: "current_vel", Slot: func(u *PlanningUpdate) *Slot[float64] { return &u.CurrentVel }},
}

var systemFloatTable = []systemFloat{
	{New: "battery", Slot: func(u *SystemStatusUpdate) *Slot[float64] { return &u.Battery }},
	{New: "voltage", Slot: func(u *SystemStatusUpdate) *Slot[float64] { return &u.Voltage }},
	{New: "current", Slot: func(u *SystemStatusUpdate) *Slot[float64] { return &u.Current }},
	{New: "link_quality", Slot: func(u *SystemStatusUpdate) *Slot[float64] { return &u.LinkQuality }},
}

var systemIntTable = []systemInt{
	{New: "gps_satellites", Slot: func(u *SystemStatusUpdate) *Slot[int] { return &u.GPSSatellites }},
}

var replayBoolTable = []replayBool{
	{New: "is_loaded", Slot: func(u *ReplayStatusUpdate) *Slot[bool] { return &u.IsLoaded }},
	{New: "is_playing", Slot: func(u *ReplayStatusUpdate) *Slot[bool] { return &u.IsPlaying }},
	{New: "replay_active", Slot: func(u *ReplayStatusUpdate) *Slot[bool] { return &u.ReplayActive }},
}

var replayIntTable = []replayInt{
	{New: "current_idx", Slot: func(u *ReplayStatusUpdate) *Slot[int] { return &u.CurrentIndex }},
	{New: "total_rows", Slot: func(u *ReplayStatusUpdate) *Slot[int] { return &u.TotalRows }},
}

var replayFloatTable = []replayFloat{
	{New: "total_time", Slot: func(u *ReplayStatusUpdate) *Slot[float64] { return &u.TotalTime }},
	{New: "speed", Slot: func(u *ReplayStatusUpdate) *Slot[float64] { return &u.Speed }},
	{New: "progress", Slot: func(u *ReplayStatusUpdate) *Slot[float64] { return &u.Progress }},
	{New: "current_time", Slot: func(u *ReplayStatusUpdate) *Slot[float64] { return &u.CurrentTime }},
}

// Planning obstacles use x/y/z where lidar obstacles use position_x/y/z.
var obstacleFloatTable = []obstacleFloat{
	{New: "position_x", Legacy: "x", Slot: func(u *obstacleUpdate) *Slot[float64] { return &u.X }},
	{New: "position_y", Legacy: "y", Slot: func(u *obstacleUpdate) *Slot[float64] { return &u.Y }},
	{New: "position_z", Legacy: "z", Slot: func(u *obstacleUpdate) *Slot[float64] { return &u.Z }},
	{New: "size_x", Slot: func(u *obstacleUpdate) *Slot[float64] { return &u.SizeX }},
	{New: "size_y", Slot: func(u *obstacleUpdate) *Slot[float64] { return &u.SizeY }},
	{New: "size_z", Slot: func(u *obstacleUpdate) *Slot[float64] { return &u.SizeZ }},
	{New: "radius", Slot: func(u *obstacleUpdate) *Slot[float64] { return &u.Radius }},
	{New: "height_min", Slot: func(u *obstacleUpdate) *Slot[float64] { return &u.HeightMin }},
	{New: "height_max", Slot: func(u *obstacleUpdate) *Slot[float64] { return &u.HeightMax }},
	{New: "distance", Slot: func(u *obstacleUpdate) *Slot[float64] { return &u.Distance }},
	{New: "azimuth", Slot: func(u *obstacleUpdate) *Slot[float64] { return &u.Azimuth }},
	{New: "confidence", Slot: func(u *obstacleUpdate) *Slot[float64] { return &u.Confidence }},
	{New: "density", Slot: func(u *obstacleUpdate) *Slot[float64] { return &u.Density }},
}

var obstacleIntTable = []obstacleInt{
	{New: "id", Slot: func(u *obstacleUpdate) *Slot[int] { return &u.ID }},
	{New: "point_count", Slot: func(u *obstacleUpdate) *Slot[int] { return &u.PointCount }},
}
