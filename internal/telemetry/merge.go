package telemetry

// Apply merges m into prior and returns the new state. Fields that m does not
// carry keep their prior value. Messages that do not touch vehicle state (log,
// replay, config, unknown) return prior unchanged and false.
func Apply(prior State, m Message) (State, bool) {
	next := prior
	switch u := m.(type) {
	case FlightStateUpdate:
		next = MergeFlightState(prior, u)
	case PWMUpdate:
		next.Actuators = MergePWM(prior.Actuators, u)
	case ControlLoopUpdate:
		next.ControlLoop = MergeControlLoop(prior.ControlLoop, u)
	case GuidanceBusUpdate:
		next.Guidance = MergeGuidanceBus(prior.Guidance, u)
	case AvoidanceUpdate:
		next.Avoidance, next.System = MergeAvoidance(prior.Avoidance, prior.System, u)
	case RemoteControlUpdate:
		next.RemoteControl = MergeRemoteControl(prior.RemoteControl, u)
	case ESCUpdate:
		next.ESC = MergeESC(prior.ESC, u)
	case GroundStationUpdate:
		next.GroundStation = MergeGroundStation(prior.GroundStation, u)
	case ParameterUpdate:
		next.Parameter = MergeParameter(prior.Parameter, u)
	case LidarStatusUpdate:
		next.Lidar = MergeLidarStatus(prior.Lidar, u)
	case PlanningUpdate:
		next.Planning = MergePlanning(prior.Planning, u)
	case ObstaclesUpdate:
		next.Obstacles = MergeObstacles(prior.Obstacles, u)
	case SystemStatusUpdate:
		next.System = MergeSystemStatus(prior.System, u)
	default:
		return prior, false
	}
	return next, true
}

// MergeFlightState applies structured fields, then legacy aliases. Legacy
// aliases also refresh the simplified attitude/position/velocity views.
func MergeFlightState(prior State, u FlightStateUpdate) State {
	s := prior
	f := &s.Flight
	u.Lat.apply(&f.Lat)
	u.Lon.apply(&f.Lon)
	u.Height.apply(&f.Height)
	u.VxGS.apply(&f.VxGS)
	u.VyGS.apply(&f.VyGS)
	u.VzGS.apply(&f.VzGS)
	u.P.apply(&f.P)
	u.Q.apply(&f.Q)
	u.R.apply(&f.R)
	u.Phi.apply(&f.Phi)
	u.Theta.apply(&f.Theta)
	u.Psi.apply(&f.Psi)

	set(&s.Attitude.Roll, u.Phi.Legacy)
	set(&s.Attitude.Pitch, u.Theta.Legacy)
	set(&s.Attitude.Yaw, u.Psi.Legacy)
	set(&s.Position.Lat, u.Lat.Legacy)
	set(&s.Position.Lon, u.Lon.Legacy)
	set(&s.Position.Alt, u.Height.Legacy)
	set(&s.Position.RelAlt, u.Height.Legacy)
	set(&s.Velocity.X, u.VxGS.Legacy)
	set(&s.Velocity.Y, u.VyGS.Legacy)
	set(&s.Velocity.Z, u.VzGS.Legacy)
	set(&s.AngularVelocity.P, u.P.Legacy)
	set(&s.AngularVelocity.Q, u.Q.Legacy)
	set(&s.AngularVelocity.R, u.R.Legacy)
	return s
}

// MergePWM overwrites the channels supplied, up to eight, and derives the
// motor view from the first six. An empty update changes nothing.
func MergePWM(prior ActuatorOutputs, u PWMUpdate) ActuatorOutputs {
	out := prior
	for i, v := range u.Channels {
		if i >= PWMChannels {
			break
		}
		set(&out.PWM[i], v)
		if i < MotorChannels {
			set(&out.Motors[i], v)
		}
	}
	return out
}

func MergeControlLoop(prior ControlLoop, u ControlLoopUpdate) ControlLoop {
	c := prior
	u.RefRoll.apply(&c.RefRoll)
	u.RefPitch.apply(&c.RefPitch)
	u.RefYaw.apply(&c.RefYaw)
	u.RefAlt.apply(&c.RefAlt)
	u.RefVx.apply(&c.RefVx)
	u.RefVy.apply(&c.RefVy)
	u.RefVz.apply(&c.RefVz)
	u.EstRoll.apply(&c.EstRoll)
	u.EstPitch.apply(&c.EstPitch)
	u.EstYaw.apply(&c.EstYaw)
	u.EstAlt.apply(&c.EstAlt)
	u.EstVx.apply(&c.EstVx)
	u.EstVy.apply(&c.EstVy)
	u.EstVz.apply(&c.EstVz)
	for i := range c.CtrlU {
		u.CtrlU[i].apply(&c.CtrlU[i])
	}
	return c
}

func MergeGuidanceBus(prior GuidanceBus, u GuidanceBusUpdate) GuidanceBus {
	g := prior
	u.VxCmd.apply(&g.VxCmd)
	u.VyCmd.apply(&g.VyCmd)
	u.HeightCmd.apply(&g.HeightCmd)
	u.PsiCmd.apply(&g.PsiCmd)
	for i := range 3 {
		u.Pos[i].apply(&g.Pos[i])
		u.Vel[i].apply(&g.Vel[i])
		u.Euler[i].apply(&g.Euler[i])
	}
	u.ControlMode.apply(&g.ControlMode)
	u.FlightMode.apply(&g.FlightMode)
	return g
}

// MergeAvoidance applies the structured flags, then the legacy aliases, which
// are also mirrored onto the system status.
func MergeAvoidance(prior AvoidanceFlags, sys SystemStatus, u AvoidanceUpdate) (AvoidanceFlags, SystemStatus) {
	a := prior
	u.LaserRadarEnabled.apply(&a.LaserRadarEnabled)
	u.AvoidanceFlag.apply(&a.AvoidanceFlag)
	u.GuideFlag.apply(&a.GuideFlag)
	set(&sys.LaserRadarEnabled, u.LaserRadarEnabled.Legacy)
	set(&sys.AvoidanceFlag, u.AvoidanceFlag.Legacy)
	set(&sys.GuideFlag, u.GuideFlag.Legacy)
	return a, sys
}

func MergeRemoteControl(prior RemoteControl, u RemoteControlUpdate) RemoteControl {
	r := prior
	u.Roll.apply(&r.Roll)
	u.Pitch.apply(&r.Pitch)
	u.Yaw.apply(&r.Yaw)
	u.Col.apply(&r.Col)
	u.Switch.apply(&r.Switch)
	u.ComFail.apply(&r.ComFail)
	return r
}

// MergeESC applies per-channel keys, then the legacy arrays.
func MergeESC(prior ESCStatus, u ESCUpdate) ESCStatus {
	e := prior
	for i := range ESCChannels {
		u.ErrorCount[i].apply(&e.ErrorCount[i])
		u.RPM[i].apply(&e.RPM[i])
		u.PowerRatingPct[i].apply(&e.PowerRatingPct[i])
	}
	return e
}

func MergeGroundStation(prior GroundStation, u GroundStationUpdate) GroundStation {
	g := prior
	u.CmdIdx.apply(&g.CmdIdx)
	u.Mission.apply(&g.Mission)
	u.Val.apply(&g.Val)
	u.ComFail.apply(&g.ComFail)
	return g
}

func MergeParameter(prior Parameter, u ParameterUpdate) Parameter {
	p := prior
	u.ID.apply(&p.ID)
	u.Value.apply(&p.Value)
	u.Min.apply(&p.Min)
	u.Max.apply(&p.Max)
	return p
}

func MergeLidarStatus(prior LidarStatus, u LidarStatusUpdate) LidarStatus {
	l := prior
	u.Running.apply(&l.Running)
	u.Connected.apply(&l.Connected)
	u.IMUValid.apply(&l.IMUValid)
	u.MotionCompActive.apply(&l.MotionCompActive)
	return l
}

func MergePlanning(prior PlanningTelemetry, u PlanningUpdate) PlanningTelemetry {
	p := prior
	u.SeqID.apply(&p.SeqID)
	u.Timestamp.apply(&p.Timestamp)
	u.CurrentPosX.apply(&p.CurrentPosX)
	u.CurrentPosY.apply(&p.CurrentPosY)
	u.CurrentPosZ.apply(&p.CurrentPosZ)
	u.CurrentVel.apply(&p.CurrentVel)
	u.UpdateFlags.apply(&p.UpdateFlags)
	u.Status.apply(&p.Status)
	u.GlobalPathCount.apply(&p.GlobalPathCount)
	u.LocalTrajCount.apply(&p.LocalTrajCount)
	u.ObstacleCount.apply(&p.ObstacleCount)
	set(&p.GlobalPath, u.GlobalPath)
	set(&p.LocalTraj, u.LocalTraj)
	return p
}

// MergeObstacles replaces the list named by the update's source.
func MergeObstacles(prior ObstacleSet, u ObstaclesUpdate) ObstacleSet {
	o := prior
	list := u.Obstacles
	if list == nil {
		list = []Obstacle{}
	}
	if u.Source == FromLidar {
		o.Lidar = list
	} else {
		o.Planning = list
	}
	return o
}

func MergeSystemStatus(prior SystemStatus, u SystemStatusUpdate) SystemStatus {
	s := prior
	set(&s.Mode, u.Mode)
	u.Battery.apply(&s.Battery)
	u.Voltage.apply(&s.Voltage)
	u.Current.apply(&s.Current)
	u.LinkQuality.apply(&s.LinkQuality)
	u.GPSSatellites.apply(&s.GPSSatellites)
	return s
}

// Position3 returns the planning position when the update carried all three
// coordinates.
func (u PlanningUpdate) Position3() (Point3, bool) {
	x, y, z := u.CurrentPosX.Resolve(), u.CurrentPosY.Resolve(), u.CurrentPosZ.Resolve()
	if !x.OK || !y.OK || !z.OK {
		return Point3{}, false
	}
	return Point3{X: x.V, Y: y.V, Z: z.V}, true
}
