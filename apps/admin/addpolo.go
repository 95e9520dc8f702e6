package main

import (
	"context"

	"github.com/simiao2025/IBUC-System-v2-sub005/core/school"
)

func (cli *commandLine) addPolo(nome, codigo, cidade string) (school.Polo, error) {
	return cli.schoolSvc.CreatePolo(context.Background(), school.NewPolo{Nome: nome, Codigo: codigo, Cidade: cidade})
}

func (cli *commandLine) notifyWaitlist() (int, error) {
	return cli.waitSvc.NotifyPending(context.Background())
}
