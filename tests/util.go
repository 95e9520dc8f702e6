package testutil

import (
	"context"
	"io"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/simiao2025/IBUC-System-v2-sub005/core"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/enrollment"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/school"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/student"
	"github.com/simiao2025/IBUC-System-v2-sub005/core/user"
	logsvc "github.com/simiao2025/IBUC-System-v2-sub005/services/logger"
)

// NewValidator returns a validator with every package validator registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	translator := core.NewTranslator()
	validate := core.NewValidator(translator)
	user.InitValidators(validate, translator)
	enrollment.InitValidators(validate, translator)
	return validate, translator
}

// NewLogger returns a logger that discards its output.
func NewLogger(conf *core.Config) core.Logger {
	l := logsvc.NewLogrus(conf)
	l.SetOutput(io.Discard)
	l.SetLevel(logrus.PanicLevel)
	return logsvc.NewRollbarLogger(l, conf, "test")
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	nome, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Nome:      nome,
		Email:     email,
		Roles:     roles,
		IsActive:  &isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreatePolo(t *testing.T, repo school.Repository, nome, codigo string, active bool) school.Polo {
	status := school.PoloStatusAtivo
	if !active {
		status = school.PoloStatusInativo
	}
	polo, err := repo.CreatePolo(context.Background(), school.Polo{
		Nome:      nome,
		Codigo:    codigo,
		Cidade:    "Palmas",
		Status:    status,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreatePolo() failed: %v", err)
	}
	return polo
}

func CreateTurma(t *testing.T, repo school.Repository, nome, poloID string) school.Turma {
	turma, err := repo.CreateTurma(context.Background(), school.Turma{
		Nome:      nome,
		PoloID:    poloID,
		Status:    school.TurmaStatusAtiva,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("CreateTurma() failed: %v", err)
	}
	return turma
}

func CreateAluno(t *testing.T, repo student.Repository, nome, cpf, poloID string, turmaID *string) student.Aluno {
	now := time.Now().UTC()
	aluno, err := repo.CreateAluno(context.Background(), student.Aluno{
		Nome:             nome,
		CPF:              cpf,
		DataNascimento:   core.NewDate(2012, time.March, 14),
		EmailResponsavel: "responsavel+" + cpf + "@test.com",
		PoloID:           poloID,
		TurmaID:          turmaID,
		Status:           student.StatusAtivo,
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if err != nil {
		t.Fatalf("CreateAluno() failed: %v", err)
	}
	return aluno
}

// Enroll creates an enrollment of the student in the class with the given status.
func Enroll(t *testing.T, repo enrollment.Repository, aluno student.Aluno, turma school.Turma, status string) enrollment.Matricula {
	mat, err := repo.CreateMatricula(context.Background(), enrollment.Matricula{
		AlunoID:   aluno.ID,
		TurmaID:   turma.ID,
		PoloID:    turma.PoloID,
		Status:    status,
		Origem:    enrollment.OrigemSite,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("Enroll() failed: %v", err)
	}
	return mat
}

func CreatePreMatricula(t *testing.T, repo enrollment.Repository, nome, cpf, poloID, status string) enrollment.PreMatricula {
	now := time.Now().UTC()
	pm, err := repo.CreatePreMatricula(context.Background(), enrollment.PreMatricula{
		NomeCompleto:        nome,
		CPF:                 cpf,
		DataNascimento:      core.NewDate(2013, time.July, 2),
		EmailResponsavel:    "pais+" + cpf + "@test.com",
		TelefoneResponsavel: "63999990000",
		PoloID:              poloID,
		Status:              status,
		CreatedAt:           now,
		UpdatedAt:           now,
	})
	if err != nil {
		t.Fatalf("CreatePreMatricula() failed: %v", err)
	}
	return pm
}
