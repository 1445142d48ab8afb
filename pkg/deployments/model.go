package deployments

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/chainsafe/multiasset/pkg/identity"
)

// DeploymentDao is the database model for a journaled deployment.
type DeploymentDao struct {
	bun.BaseModel `bun:"table:deployments,alias:d"`
	ID            uuid.UUID `bun:"id,pk,type:uuid"`
	Contract      string    `bun:"contract,unique,notnull,type:varchar(66)"`
	Deployer      string    `bun:"deployer,notnull,type:varchar(66)"`
	Salt          string    `bun:"salt,type:varchar(66)"`
	TxID          string    `bun:"tx_id,type:varchar(66)"`
	Phase         string    `bun:"phase,notnull,type:varchar(16)"`
	RPCURL        string    `bun:"rpc_url,type:text"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func toDeploymentDao(rec *Record) *DeploymentDao {
	return &DeploymentDao{
		ID:       rec.ID,
		Contract: rec.Contract.String(),
		Deployer: rec.Deployer.String(),
		Salt:     rec.Salt.String(),
		TxID:     rec.TxID.String(),
		Phase:    rec.Phase,
		RPCURL:   rec.RPCURL,
	}
}

func fromDeploymentDao(dao *DeploymentDao) (*Record, error) {
	rec := &Record{
		ID:        dao.ID,
		Phase:     dao.Phase,
		RPCURL:    dao.RPCURL,
		CreatedAt: dao.CreatedAt,
		UpdatedAt: dao.UpdatedAt,
	}
	var err error
	if rec.Contract, err = identity.ParseFingerprint(dao.Contract); err != nil {
		return nil, err
	}
	if rec.Deployer, err = identity.ParseFingerprint(dao.Deployer); err != nil {
		return nil, err
	}
	if rec.Salt, err = identity.ParseFingerprint(dao.Salt); err != nil {
		return nil, err
	}
	if rec.TxID, err = identity.ParseFingerprint(dao.TxID); err != nil {
		return nil, err
	}
	return rec, nil
}
