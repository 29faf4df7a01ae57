package moderation

import (
	"context"
	"errors"
	"fmt"

	"stan-guard/internal/models"
	"stan-guard/internal/platform"
)

// VerifyAction selects what the verification command does to the subject.
type VerifyAction string

const (
	// VerifyAssign gives the subject the gendered role and strips the
	// new-member role.
	VerifyAssign VerifyAction = "assign"
	// VerifyDeny bans the subject for failing verification.
	VerifyDeny VerifyAction = "deny"
	// VerifySwap exchanges one gendered role for the other.
	VerifySwap VerifyAction = "swap"
)

const denyReason = "Non-admission"

type VerifyRequest struct {
	GuildID   string
	ActorID   string
	SubjectID string
	Action    VerifyAction
	// Gender is "male" or "female"; required for VerifyAssign.
	Gender string
}

type VerifyResult struct {
	Subject *platform.Member
	// RoleName is the gendered role the subject ended up with; empty for
	// VerifyDeny.
	RoleName string
	Banned   bool
	AuditErr error
}

// Verify runs the member-verification flows over the guild's gendered
// roles.
func (o *Orchestrator) Verify(ctx context.Context, req VerifyRequest) (*VerifyResult, error) {
	settings, err := o.settings.Ensure(req.GuildID)
	if err != nil {
		return nil, storageErr("load settings", err)
	}

	actor, subject, _, err := o.authorize(ctx, req.GuildID, req.ActorID, req.SubjectID)
	if err != nil {
		return nil, err
	}

	switch req.Action {
	case VerifyAssign:
		return o.verifyAssign(ctx, settings, actor, subject, req.Gender)
	case VerifyDeny:
		return o.verifyDeny(ctx, settings, actor, subject)
	case VerifySwap:
		return o.verifySwap(ctx, settings, actor, subject)
	default:
		return nil, &ValidationError{Reason: "unknown verification action"}
	}
}

func (o *Orchestrator) verifyAssign(ctx context.Context, settings *models.ServerSettings, actor, subject *platform.Member, gender string) (*VerifyResult, error) {
	var roleName string
	switch gender {
	case "male":
		roleName = settings.ManRoleName
	case "female":
		roleName = settings.GirlRoleName
	default:
		return nil, &ValidationError{Reason: "choose a gender for the role"}
	}

	role, err := o.members.GetOrCreateRole(ctx, settings.GuildID, roleName, platform.RoleColorRandom)
	if err != nil {
		return nil, platformErr("resolve gendered role", err)
	}
	if hasRole(subject, role.ID) {
		return nil, &ValidationError{Reason: fmt.Sprintf("member already has the %s role", role.Name)}
	}
	if err := o.members.AddRole(ctx, settings.GuildID, subject.UserID, role.ID); err != nil {
		return nil, platformErr("assign gendered role", err)
	}
	if settings.NewMemberRoleName != "" {
		o.removeRoleIfPresent(ctx, settings.GuildID, subject.UserID, settings.NewMemberRoleName)
	}

	result := &VerifyResult{Subject: subject, RoleName: role.Name}
	result.AuditErr = o.sendAudit(ctx, settings, auditMain, verifyAssignEmbed(actor, subject, role.Name))

	o.notify(ctx, subject.UserID, fmt.Sprintf(
		"You have been verified in %s and given the %s role.",
		o.channels.GuildName(settings.GuildID), role.Name))
	return result, nil
}

func (o *Orchestrator) verifyDeny(ctx context.Context, settings *models.ServerSettings, actor, subject *platform.Member) (*VerifyResult, error) {
	if err := o.members.Ban(ctx, settings.GuildID, subject.UserID, denyReason, 0); err != nil {
		return nil, platformErr("ban member", err)
	}

	result := &VerifyResult{Subject: subject, Banned: true}
	result.AuditErr = o.sendAudit(ctx, settings, auditMain, verifyDenyEmbed(actor, subject))
	return result, nil
}

func (o *Orchestrator) verifySwap(ctx context.Context, settings *models.ServerSettings, actor, subject *platform.Member) (*VerifyResult, error) {
	manRole, err := o.members.FindRole(settings.GuildID, settings.ManRoleName)
	if err != nil {
		return nil, swapRoleErr(settings.ManRoleName, err)
	}
	girlRole, err := o.members.FindRole(settings.GuildID, settings.GirlRoleName)
	if err != nil {
		return nil, swapRoleErr(settings.GirlRoleName, err)
	}

	var from, to *platform.Role
	switch {
	case hasRole(subject, manRole.ID):
		from, to = manRole, girlRole
	case hasRole(subject, girlRole.ID):
		from, to = girlRole, manRole
	default:
		return nil, &ValidationError{Reason: "member has no gendered role to change"}
	}

	if err := o.members.RemoveRole(ctx, settings.GuildID, subject.UserID, from.ID); err != nil {
		return nil, platformErr("remove gendered role", err)
	}
	if err := o.members.AddRole(ctx, settings.GuildID, subject.UserID, to.ID); err != nil {
		return nil, platformErr("assign gendered role", err)
	}

	result := &VerifyResult{Subject: subject, RoleName: to.Name}
	result.AuditErr = o.sendAudit(ctx, settings, auditMain, verifySwapEmbed(actor, subject, to.Name))
	return result, nil
}

func swapRoleErr(name string, err error) error {
	if errors.Is(err, platform.ErrNotFound) {
		return &ValidationError{Reason: fmt.Sprintf("the %s role does not exist yet", name)}
	}
	return platformErr("find gendered role", err)
}

func hasRole(member *platform.Member, roleID string) bool {
	for _, id := range member.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}
