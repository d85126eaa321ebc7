package auth

import (
	"github.com/SwetabhSingh17/APMS-sub001/internal/apperrors"
	"github.com/SwetabhSingh17/APMS-sub001/internal/models"
)

type Capability string

const (
	CapTopicSubmit      Capability = "topic:submit"
	CapTopicReview      Capability = "topic:review"
	CapTopicListAll     Capability = "topic:list-all"
	CapGroupCreate      Capability = "group:create"
	CapProjectSelect    Capability = "project:select"
	CapProjectProgress  Capability = "project:progress"
	CapProjectEvaluate  Capability = "project:evaluate"
	CapProjectListAll   Capability = "project:list-all"
	CapMilestoneManage  Capability = "milestone:manage"
	CapUserCreate       Capability = "user:create"
	CapUserList         Capability = "user:list"
	CapSystemAdminister Capability = "system:admin"
)

var capabilities = map[Capability][]models.Role{
	CapTopicSubmit:      {models.RoleTeacher},
	CapTopicReview:      {models.RoleCoordinator, models.RoleAdmin},
	CapTopicListAll:     {models.RoleCoordinator, models.RoleAdmin},
	CapGroupCreate:      {models.RoleStudent},
	CapProjectSelect:    {models.RoleStudent},
	CapProjectProgress:  {models.RoleTeacher},
	CapProjectEvaluate:  {models.RoleTeacher},
	CapProjectListAll:   {models.RoleCoordinator, models.RoleAdmin},
	CapMilestoneManage:  {models.RoleTeacher},
	CapUserCreate:       {models.RoleAdmin},
	CapUserList:         {models.RoleAdmin, models.RoleCoordinator, models.RoleTeacher},
	CapSystemAdminister: {models.RoleAdmin},
}

// Can reports whether role holds capability. Unknown capabilities are denied.
func Can(role models.Role, capability Capability) bool {
	for _, r := range capabilities[capability] {
		if r == role {
			return true
		}
	}
	return false
}

// Require fails with an authorization error unless actor holds capability.
func Require(actor *models.User, capability Capability) error {
	if actor == nil {
		return apperrors.ErrUnauthenticated
	}
	if !Can(actor.Role, capability) {
		return apperrors.Forbidden("role %s is not allowed to perform %s", actor.Role, capability)
	}
	return nil
}
